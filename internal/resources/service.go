package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
)

// Caller issues authenticated API calls. Implemented by farmapi.Gateway.
type Caller interface {
	Get(ctx context.Context, endpoint string) (json.RawMessage, error)
	Post(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error)
	Patch(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, endpoint string) (json.RawMessage, error)
}

// Service reads and writes farm records through a Caller.
type Service struct {
	api    Caller
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(api Caller, logger *slog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Change is the before and after of an update.
type Change struct {
	Before Record
	After  Record
}

// List returns every record of kind k.
func (s *Service) List(ctx context.Context, k *Kind) ([]Record, error) {
	body, err := s.api.Get(ctx, k.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", k.Name, err)
	}

	records, err := parseList(body)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", k.Name, err)
	}

	s.logger.Debug("listed records", slog.String("kind", k.Name), slog.Int("count", len(records)))

	return records, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, k *Kind, id string) (Record, error) {
	id, err := checkID(id)
	if err != nil {
		return Record{}, err
	}

	body, err := s.api.Get(ctx, k.itemEndpoint(id))
	if err != nil {
		return Record{}, fmt.Errorf("loading %s %s: %w", k.Singular, id, err)
	}

	return NewRecord(body)
}

// Create posts a new record and returns what the server stored.
func (s *Service) Create(ctx context.Context, k *Kind, fields map[string]interface{}) (Record, error) {
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("%w: no fields given", apperrors.ErrValidation)
	}

	body, err := s.api.Post(ctx, k.Endpoint, fields)
	if err != nil {
		return Record{}, fmt.Errorf("creating %s: %w", k.Singular, err)
	}

	rec, err := NewRecord(body)
	if err != nil {
		return Record{}, fmt.Errorf("creating %s: %w", k.Singular, err)
	}

	s.logger.Info("record created", slog.String("kind", k.Name), slog.String("id", rec.ID()))

	return rec, nil
}

// Update patches the given fields of one record. The record is read
// first so the caller can show what changed.
func (s *Service) Update(ctx context.Context, k *Kind, id string, fields map[string]interface{}) (Change, error) {
	if len(fields) == 0 {
		return Change{}, fmt.Errorf("%w: no fields given", apperrors.ErrValidation)
	}

	id, err := checkID(id)
	if err != nil {
		return Change{}, err
	}

	before, err := s.Get(ctx, k, id)
	if err != nil {
		return Change{}, err
	}

	body, err := s.api.Patch(ctx, k.itemEndpoint(id), fields)
	if err != nil {
		return Change{}, fmt.Errorf("updating %s %s: %w", k.Singular, id, err)
	}

	after, err := NewRecord(body)
	if err != nil {
		return Change{}, fmt.Errorf("updating %s %s: %w", k.Singular, id, err)
	}

	s.logger.Info("record updated", slog.String("kind", k.Name), slog.String("id", id))

	return Change{Before: before, After: after}, nil
}

// Delete removes one record.
func (s *Service) Delete(ctx context.Context, k *Kind, id string) error {
	id, err := checkID(id)
	if err != nil {
		return err
	}

	if _, err := s.api.Delete(ctx, k.itemEndpoint(id)); err != nil {
		return fmt.Errorf("deleting %s %s: %w", k.Singular, id, err)
	}

	s.logger.Info("record deleted", slog.String("kind", k.Name), slog.String("id", id))

	return nil
}

// checkID accepts only positive integer ids so an id can never change
// the endpoint path.
func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: invalid id %q", apperrors.ErrValidation, id)
	}

	return strconv.FormatInt(n, 10), nil
}

// ParseFields turns key=value arguments into a request body. key=value
// sends a string; key:=value sends raw JSON (numbers, booleans, null,
// arrays).
func ParseFields(args []string) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(args))

	for _, arg := range args {
		if key, raw, ok := strings.Cut(arg, ":="); ok && !strings.Contains(key, "=") {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("%w: empty field name in %q", apperrors.ErrValidation, arg)
			}

			var v interface{}
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, fmt.Errorf("%w: field %s is not valid JSON: %w", apperrors.ErrValidation, key, err)
			}

			fields[key] = v

			continue
		}

		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", apperrors.ErrValidation, arg)
		}

		fields[key] = value
	}

	return fields, nil
}
