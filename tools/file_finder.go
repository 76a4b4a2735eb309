package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/geo_transformer/internal/placer"
)

// extensions of the plain text point files picked up by folder processing
var pointFileExtensions = map[string]bool{
	".txt": true,
	".csv": true,
	".xyz": true,
}

type FileFinder interface {
	GetPointFilesToProcess(opts *placer.ConvertOptions) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetPointFilesToProcess(opts *placer.ConvertOptions) ([]string, error) {
	// If folder processing is not enabled then the point file is given by -input flag, otherwise look for point
	// files in -input folder eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getPointFilesFromInputFolder(opts)
}

func (f *StandardFileFinder) getPointFilesFromInputFolder(opts *placer.ConvertOptions) ([]string, error) {
	var pointFiles = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, err
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !opts.Recursive && !os.SameFile(info, baseInfo) {
					return filepath.SkipDir
				}
				return nil
			}
			if pointFileExtensions[strings.ToLower(filepath.Ext(info.Name()))] {
				pointFiles = append(pointFiles, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Strings(pointFiles)
	return pointFiles, nil
}
