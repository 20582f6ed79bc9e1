package page

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coredb/pkg/primitives"
)

// BaseFile provides the common file-handle plumbing shared by every
// on-disk table format: thread-safe raw page I/O, page counting, and page
// allocation. Concrete formats like HeapFile embed it and layer their own
// page parsing on top.
type BaseFile struct {
	file     *os.File
	tableID  primitives.TableID
	filePath primitives.Filepath
	mutex    sync.RWMutex
}

// NewBaseFile opens (creating if necessary) the file at filePath.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	absPath, err := filepath.Abs(string(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	f, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &BaseFile{
		file:     f,
		tableID:  primitives.Filepath(absPath).Hash(),
		filePath: filePath,
	}, nil
}

// GetID returns the table ID derived from this file's path.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.tableID
}

// FilePath returns the path this file was opened from.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns the number of whole pages currently in the file. A
// trailing partial page, if any, is not counted: every page must be
// written in full.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return primitives.PageNumber(info.Size() / int64(PageSize)), nil
}

// ReadPageData reads exactly PageSize bytes at pageNo's offset.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	data := make([]byte, PageSize)
	offset := int64(pageNo) * int64(PageSize)
	if _, err := bf.file.ReadAt(data, offset); err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageNo, err)
	}
	return data, nil
}

// WritePageData writes exactly PageSize bytes at pageNo's offset,
// extending the file if pageNo is one past the current end.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, data []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}
	if len(data) != PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(data))
	}

	offset := int64(pageNo) * int64(PageSize)
	if _, err := bf.file.WriteAt(data, offset); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageNo, err)
	}
	return bf.file.Sync()
}

// AllocateNewPage atomically reserves the next page number by extending
// the file with a zero-filled page, so two concurrent callers can never
// receive the same page number.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	numPages := primitives.PageNumber(info.Size() / int64(PageSize))
	offset := int64(numPages) * int64(PageSize)

	if _, err := bf.file.WriteAt(make([]byte, PageSize), offset); err != nil {
		return 0, fmt.Errorf("failed to reserve new page: %w", err)
	}
	if err := bf.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync after allocation: %w", err)
	}

	return numPages, nil
}

// Close releases the underlying file handle.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return nil
	}
	err := bf.file.Close()
	bf.file = nil
	return err
}
