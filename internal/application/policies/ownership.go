package policies

import "github.com/google/uuid"

// RequireCreator allows writes only by the user recorded as creator. Reads
// are not checked here.
func RequireCreator(createdBy *uuid.UUID, actorID uuid.UUID) error {
	if createdBy == nil || *createdBy != actorID {
		return ErrNotResourceOwner
	}
	return nil
}
