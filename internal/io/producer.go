package io

import (
	"sync"
)

type Producer interface {
	Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup, files []string)
}

type Consumer interface {
	Consume(workchan chan *WorkUnit, results chan *Result, wg *sync.WaitGroup)
}
