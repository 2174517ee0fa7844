package cache

// Manager inspects and prunes the files held in a staging directory.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
}

// CleanOptions specifies what to remove from the staging directory.
// With nothing set every kind is removed.
type CleanOptions struct {
	All        bool
	Images     bool
	Digests    bool
	Compressed bool
}

// CleanResult contains information about what was removed.
type CleanResult struct {
	TotalFreed      int64
	ImageFreed      int64
	DigestFreed     int64
	CompressedFreed int64
	Removed         int
}

// Info summarizes the staged files by kind.
type Info struct {
	Directory       string
	TotalSize       int64
	ImageSize       int64
	ImageFiles      int
	DigestSize      int64
	DigestFiles     int
	CompressedSize  int64
	CompressedFiles int
}
