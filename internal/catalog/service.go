package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/fitjournal/internal/docstore"
	"github.com/2beens/fitjournal/internal/telemetry/tracing"
	"github.com/2beens/fitjournal/internal/workouts"

	"go.opentelemetry.io/otel/attribute"
)

var ErrDuplicateName = errors.New("name already in use")

// Service manages the exercises and metcons of each user.
type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
	}
}

func exercisesRef(userID string) docstore.CollectionRef {
	return docstore.CollectionRef{UserID: userID, Name: docstore.CollectionExercises}
}

func metconsRef(userID string) docstore.CollectionRef {
	return docstore.CollectionRef{UserID: userID, Name: docstore.CollectionMetcons}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *Service) Exercises(ctx context.Context, userID string) (_ []workouts.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.exercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docs, err := s.store.List(ctx, exercisesRef(userID))
	if err != nil {
		return nil, err
	}
	list, err := docstore.Decode(docs, func(e *workouts.Exercise, id string) { e.ID = id })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	span.SetAttributes(attribute.Int("exercises", len(list)))
	return list, nil
}

func (s *Service) checkExerciseName(ctx context.Context, userID, name, exceptID string) error {
	list, err := s.Exercises(ctx, userID)
	if err != nil {
		return err
	}
	for _, e := range list {
		if e.ID != exceptID && sameName(e.Name, name) {
			return ErrDuplicateName
		}
	}
	return nil
}

func (s *Service) AddExercise(ctx context.Context, userID string, e workouts.Exercise) (*workouts.Exercise, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := workouts.ValidateExercise(e); err != nil {
		return nil, err
	}
	if err := s.checkExerciseName(ctx, userID, e.Name, ""); err != nil {
		return nil, err
	}

	id, err := s.create(ctx, exercisesRef(userID), e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func (s *Service) UpdateExercise(ctx context.Context, userID, id string, e workouts.Exercise) error {
	e.Name = strings.TrimSpace(e.Name)
	if err := workouts.ValidateExercise(e); err != nil {
		return err
	}
	if err := s.checkExerciseName(ctx, userID, e.Name, id); err != nil {
		return err
	}
	e.ID = ""
	return s.replace(ctx, exercisesRef(userID), id, e)
}

func (s *Service) DeleteExercise(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, exercisesRef(userID), id)
}

func (s *Service) Metcons(ctx context.Context, userID string) (_ []workouts.Metcon, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.catalog.metcons")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docs, err := s.store.List(ctx, metconsRef(userID))
	if err != nil {
		return nil, err
	}
	list, err := docstore.Decode(docs, func(m *workouts.Metcon, id string) { m.ID = id })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	span.SetAttributes(attribute.Int("metcons", len(list)))
	return list, nil
}

// MetconByName finds a metcon by its exact name.
func (s *Service) MetconByName(ctx context.Context, userID, name string) (*workouts.Metcon, error) {
	list, err := s.Metcons(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		if m.Name == name {
			return &m, nil
		}
	}
	return nil, docstore.ErrNotFound
}

// MetconTypes returns a lookup usable for workout validation.
func (s *Service) MetconTypes(ctx context.Context, userID string) (workouts.MetconLookup, error) {
	list, err := s.Metcons(ctx, userID)
	if err != nil {
		return nil, err
	}
	types := make(map[string]workouts.MetconType, len(list))
	for _, m := range list {
		types[m.Name] = m.Type
	}
	return func(name string) (workouts.MetconType, bool) {
		t, ok := types[name]
		return t, ok
	}, nil
}

func (s *Service) checkMetconName(ctx context.Context, userID, name, exceptID string) error {
	list, err := s.Metcons(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range list {
		if m.ID != exceptID && sameName(m.Name, name) {
			return ErrDuplicateName
		}
	}
	return nil
}

func (s *Service) AddMetcon(ctx context.Context, userID string, m workouts.Metcon) (*workouts.Metcon, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := workouts.ValidateMetcon(m); err != nil {
		return nil, err
	}
	if err := s.checkMetconName(ctx, userID, m.Name, ""); err != nil {
		return nil, err
	}

	id, err := s.create(ctx, metconsRef(userID), m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

func (s *Service) UpdateMetcon(ctx context.Context, userID, id string, m workouts.Metcon) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := workouts.ValidateMetcon(m); err != nil {
		return err
	}
	if err := s.checkMetconName(ctx, userID, m.Name, id); err != nil {
		return err
	}
	m.ID = ""
	return s.replace(ctx, metconsRef(userID), id, m)
}

func (s *Service) DeleteMetcon(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, metconsRef(userID), id)
}

func (s *Service) create(ctx context.Context, ref docstore.CollectionRef, v any) (string, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", ref.Name, err)
	}
	return s.store.Create(ctx, ref, doc)
}

func (s *Service) replace(ctx context.Context, ref docstore.CollectionRef, id string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", ref.Name, err)
	}
	return s.store.Replace(ctx, ref, id, doc)
}
