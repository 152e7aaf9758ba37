package httpapi

import (
	"fmt"

	"github.com/anyvario/anyvar/internal/storage"
)

func errObjectNotFound(id string) error {
	return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
}
