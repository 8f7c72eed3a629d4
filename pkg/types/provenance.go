package types

// Provenance tracks where a source file was discovered.
type Provenance interface {
	Kind() string
	// Path returns the displayable path.
	Path() string
}

// FileProvenance is a program source found on the file system.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// CopybookProvenance is a copybook found while enumerating sources.
type CopybookProvenance struct {
	FilePath string
}

// Kind returns "copybook".
func (c CopybookProvenance) Kind() string {
	return "copybook"
}

// Path returns the file path.
func (c CopybookProvenance) Path() string {
	return c.FilePath
}
