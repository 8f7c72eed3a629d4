package enum

import (
	"context"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Callback receives the content of one discovered file, its content ID and
// where it was found. It may be called from several goroutines at once.
type Callback func(content []byte, id types.SourceID, prov types.Provenance) error

// Enumerator discovers COBOL files to preprocess.
type Enumerator interface {
	// Enumerate yields every eligible file to callback.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// Classifier selects COBOL files; nil selects the default extensions.
	Classifier *copybook.Classifier

	// IncludeCopybooks yields copybooks as well as programs.
	IncludeCopybooks bool

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Workers is the number of parallel readers (0 = one per CPU).
	Workers int
}
