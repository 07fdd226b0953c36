package immich

import (
	"fmt"

	"github.com/google/uuid"
)

// BulkIDsRequest is the body of bulk asset operations such as trashing
type BulkIDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// APIError is returned when the API answers with a status that is not a success
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}
