package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags records how a file's content reached the FileSet.
	FileFlags uint8
)

const (
	// FileVirtual marks content registered from memory rather than
	// disk: tests, stdin, and the synthetic names embedded in bundles.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// Has reports whether every bit of flag is set.
func (f FileFlags) Has(flag FileFlags) bool { return f&flag == flag }

// File is one registered source: the normalized content plus the line
// index and content hash derived from it at registration time.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// IsVirtual reports whether the file is not backed by a path on disk.
func (f *File) IsVirtual() bool { return f.Flags.Has(FileVirtual) }

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
