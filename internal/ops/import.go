package ops

import (
	"context"
	"fmt"
	"io"

	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/contact"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/store"
)

// maxImportBytes caps how much of an import file is read.
const maxImportBytes = 64 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string           // required
	Mode store.ImportMode // default: merge
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Path string `json:"path"`
	store.ImportOutput
}

// Import reads a JSON export and merges it into the store, or replaces the
// store's contents with it. A file that does not parse changes nothing.
func Import(ctx context.Context, s *store.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		return nil, errors.As(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > maxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", maxImportBytes))
	}

	records, err := contact.Decode(data)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	out, err := s.Import(ctx, store.ImportInput{Records: records, Mode: input.Mode})
	if out == nil {
		return nil, err
	}
	return &ImportOutput{Path: input.Path, ImportOutput: *out}, err
}
