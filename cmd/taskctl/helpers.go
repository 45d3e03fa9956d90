package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-manager-api/internal/client"
	"github.com/phrazzld/task-manager-api/internal/validation"
)

func parseID(raw string) (uuid.UUID, error) {
	id, err := validation.TaskID(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q: %s", raw, validation.MsgInvalidTaskID)
	}
	return id, nil
}

func parseDue(raw string) (time.Time, error) {
	d, err := validation.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", raw)
	}
	return d, nil
}

// describe returns the store's user-facing message for err.
func describe(s *client.Store, err error) error {
	msg := s.State().Error
	if msg == "" {
		return err
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s (HTTP %d)", msg, apiErr.Status)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
