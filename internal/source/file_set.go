package source

import (
	"crypto/sha256"
	"fmt"
	"go/token"
	"os"

	"fortio.org/safecast"
)

// FileSet owns every source file seen by a capture and resolves spans
// back to line/column positions for diagnostics.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 4),
		index: make(map[string]FileID),
	}
}

// Add stores content under path and returns a fresh FileID.
// A path added twice gets a new id; lookups by path return the latest.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	mustLen(content)
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	norm := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    norm,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[norm] = id
	return id
}

// Load reads a file from disk, strips a BOM, normalizes CRLF and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	var flags FileFlags
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when id is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the latest file registered under path.
func (fs *FileSet) Lookup(path string) (*File, bool) {
	id, ok := fs.index[normalizePath(path)]
	if !ok {
		return nil, false
	}
	return &fs.files[id], true
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Position renders span as "path:line:col".
func (fs *FileSet) Position(span Span) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}

// SpanOf maps a go/token position range of file onto a Span.
// base is the token.File base the parser assigned to this file.
func (fs *FileSet) SpanOf(file FileID, base int, from, to token.Pos) Span {
	start := offset(int(from) - base)
	end := offset(int(to) - base)
	if end < start {
		end = start
	}
	return Span{File: file, Start: start, End: end}
}

// GetLine returns the text of the 1-based line lineNum, without the newline.
func (f *File) GetLine(lineNum uint32) string {
	if f == nil || lineNum == 0 {
		return ""
	}
	n := uint32(len(f.LineIdx)) //nolint:gosec // bounded by mustLen in Add
	var start uint32
	if lineNum > 1 {
		if lineNum-2 >= n {
			return ""
		}
		start = f.LineIdx[lineNum-2] + 1
	}
	end := uint32(len(f.Content)) //nolint:gosec // bounded by mustLen in Add
	if lineNum-1 < n {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

func offset(v int) uint32 {
	if v < 0 {
		return 0
	}
	out, err := safecast.Conv[uint32](v)
	if err != nil {
		panic(fmt.Errorf("source offset overflow: %w", err))
	}
	return out
}

func mustLen(content []byte) {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("source file too large: %w", err))
	}
}
