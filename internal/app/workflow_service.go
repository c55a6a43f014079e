package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/garage/internal/core/workflow"
	"github.com/example/garage/internal/ports/primary"
	"github.com/example/garage/internal/ports/secondary"
)

// errAborted signals InTransaction to roll back after a domain failure
// that is already recorded in the result being built.
var errAborted = errors.New("transition aborted")

// WorkflowServiceImpl implements the WorkflowService interface. It is the
// only component that mutates inspection state; everything it writes for
// one transition shares a single transaction boundary.
type WorkflowServiceImpl struct {
	store secondary.WorkflowStore
	now   func() time.Time
	newID func() string
}

// NewWorkflowService creates a new WorkflowService with injected
// dependencies.
func NewWorkflowService(store secondary.WorkflowStore) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ExecuteTransition validates and applies one state change atomically:
// re-fetch under the transaction, compare the caller's belief, validate,
// write the guarded update, append one history row, run the matched
// action, commit. Any failure rolls back before returning; partial state
// is never observable.
func (s *WorkflowServiceImpl) ExecuteTransition(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error) {
	res := &primary.TransitionResult{}

	coreReq, perr := parseTransitionRequest(req)
	if perr != nil {
		res.Errors = append(res.Errors, primary.TransitionError{Kind: string(workflow.KindValidation), Message: perr.Error()})
		return res, nil
	}

	err := s.store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
		rec, err := tx.GetInspectionForUpdate(ctx, req.ShopID, req.InspectionID)
		if err != nil {
			return fmt.Errorf("failed to load inspection: %w", err)
		}

		// The belief comparison is the engine's entire concurrency
		// control: of two racing requests, one wins and the other sees
		// this mismatch and must refetch and retry.
		if rec.State != string(coreReq.FromState) || (req.ExpectedVersion >= 0 && rec.Version != req.ExpectedVersion) {
			conflict := &workflow.ConflictError{
				InspectionID:    rec.ID,
				ExpectedState:   coreReq.FromState,
				FoundState:      workflow.State(rec.State),
				ExpectedVersion: req.ExpectedVersion,
				FoundVersion:    rec.Version,
			}
			res.Errors = append(res.Errors, toPortError(conflict.AsTransitionError()))
			return errAborted
		}

		facts, err := s.gatherFacts(ctx, tx, rec, coreReq.ToState)
		if err != nil {
			return err
		}

		v := workflow.Validate(coreReq, facts)
		res.Warnings = v.Warnings
		if !v.Valid {
			for _, e := range v.Errors {
				res.Errors = append(res.Errors, toPortError(e))
			}
			return errAborted
		}

		now := s.now()
		mut := workflow.Mutation{}
		if fn, ok := workflow.ActionFor(coreReq.FromState, coreReq.ToState); ok {
			mut, err = fn(workflow.Snapshot{
				InspectionID: rec.ID,
				StartedAt:    rec.StartedAt,
				CompletedAt:  rec.CompletedAt,
			}, now)
			if err != nil {
				return fmt.Errorf("transition action failed: %w", err)
			}
		}

		if err := tx.ApplyTransition(ctx, &secondary.TransitionUpdate{
			InspectionID: rec.ID,
			ShopID:       req.ShopID,
			FromVersion:  rec.Version,
			ToState:      string(coreReq.ToState),
			StartedAt:    mut.StartedAt,
			CompletedAt:  mut.CompletedAt,
			Duration:     mut.Duration,
		}); err != nil {
			return fmt.Errorf("failed to apply transition: %w", err)
		}

		if err := tx.InsertHistory(ctx, &secondary.HistoryRecord{
			ID:            s.newID(),
			InspectionID:  rec.ID,
			ShopID:        req.ShopID,
			FromState:     string(coreReq.FromState),
			ToState:       string(coreReq.ToState),
			ChangedBy:     req.ActorID,
			ChangedByRole: req.ActorRole,
			ChangedAt:     now,
			ChangeReason:  strings.TrimSpace(req.Reason),
		}); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		res.Success = true
		res.Version = rec.Version + 1
		return nil
	})
	if err != nil {
		if errors.Is(err, errAborted) {
			return res, nil
		}
		return nil, workflow.WrapError(workflow.KindPersistence, err, "transition for inspection %s", req.InspectionID)
	}

	return res, nil
}

// CanTransition runs the validator against the current persisted record
// without opening a write transaction. Cheap enough for UI affordances.
func (s *WorkflowServiceImpl) CanTransition(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error) {
	res := &primary.TransitionResult{}

	rec, err := s.store.GetInspection(ctx, req.ShopID, req.InspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inspection: %w", err)
	}

	if req.FromState == "" {
		req.FromState = rec.State
	}

	coreReq, perr := parseTransitionRequest(req)
	if perr != nil {
		res.Errors = append(res.Errors, primary.TransitionError{Kind: string(workflow.KindValidation), Message: perr.Error()})
		return res, nil
	}

	if rec.State != req.FromState {
		conflict := &workflow.ConflictError{
			InspectionID:    rec.ID,
			ExpectedState:   coreReq.FromState,
			FoundState:      workflow.State(rec.State),
			ExpectedVersion: req.ExpectedVersion,
			FoundVersion:    rec.Version,
		}
		res.Errors = append(res.Errors, toPortError(conflict.AsTransitionError()))
		return res, nil
	}

	items, err := s.store.ListItems(ctx, req.ShopID, req.InspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	facts := factsFromItems(items)
	if coreReq.ToState == workflow.StateSentToCustomer {
		facts.CustomerHasContact, err = s.store.CustomerHasContact(ctx, req.ShopID, rec.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check customer contact: %w", err)
		}
	}

	v := workflow.Validate(coreReq, facts)
	res.Warnings = v.Warnings
	for _, e := range v.Errors {
		res.Errors = append(res.Errors, toPortError(e))
	}
	res.Success = v.Valid
	res.Version = rec.Version
	return res, nil
}

// ForceTransition is the privileged override path. It skips the state
// graph and the validator but keeps the transactional shape: re-fetch,
// guarded write, one history row tagged as forced.
func (s *WorkflowServiceImpl) ForceTransition(ctx context.Context, req primary.ForceTransitionRequest) (*primary.TransitionResult, error) {
	res := &primary.TransitionResult{}

	// The reason check runs before any store access.
	if strings.TrimSpace(req.Reason) == "" {
		res.Errors = append(res.Errors, primary.TransitionError{
			Kind:    string(workflow.KindValidation),
			Message: "a forced transition requires a non-blank reason",
		})
		return res, nil
	}

	toState, err := workflow.ParseState(req.ToState)
	if err != nil {
		res.Errors = append(res.Errors, primary.TransitionError{Kind: string(workflow.KindValidation), Message: err.Error()})
		return res, nil
	}

	// The caller enforces the privileged role; re-check it here anyway.
	actor, err := s.store.GetActor(ctx, req.ShopID, req.ActorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if actor.Role != string(workflow.RoleAdmin) {
		res.Errors = append(res.Errors, primary.TransitionError{
			Kind:    string(workflow.KindAuthorization),
			Message: fmt.Sprintf("role %q may not force transitions", actor.Role),
		})
		return res, nil
	}

	err = s.store.InTransaction(ctx, func(tx secondary.WorkflowTx) error {
		rec, err := tx.GetInspectionForUpdate(ctx, req.ShopID, req.InspectionID)
		if err != nil {
			return fmt.Errorf("failed to load inspection: %w", err)
		}

		now := s.now()
		mut := workflow.Mutation{}
		// A matched action still runs on a forced edge so field stamps
		// stay consistent with normal traffic.
		if fn, ok := workflow.ActionFor(workflow.State(rec.State), toState); ok {
			mut, err = fn(workflow.Snapshot{
				InspectionID: rec.ID,
				StartedAt:    rec.StartedAt,
				CompletedAt:  rec.CompletedAt,
			}, now)
			if err != nil {
				return fmt.Errorf("transition action failed: %w", err)
			}
		}

		if err := tx.ApplyTransition(ctx, &secondary.TransitionUpdate{
			InspectionID: rec.ID,
			ShopID:       req.ShopID,
			FromVersion:  rec.Version,
			ToState:      string(toState),
			StartedAt:    mut.StartedAt,
			CompletedAt:  mut.CompletedAt,
			Duration:     mut.Duration,
		}); err != nil {
			return fmt.Errorf("failed to apply forced transition: %w", err)
		}

		if err := tx.InsertHistory(ctx, &secondary.HistoryRecord{
			ID:            s.newID(),
			InspectionID:  rec.ID,
			ShopID:        req.ShopID,
			FromState:     rec.State,
			ToState:       string(toState),
			ChangedBy:     req.ActorID,
			ChangedByRole: actor.Role,
			Forced:        true,
			ChangedAt:     now,
			ChangeReason:  strings.TrimSpace(req.Reason),
		}); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		res.Success = true
		res.Version = rec.Version + 1
		return nil
	})
	if err != nil {
		return nil, workflow.WrapError(workflow.KindPersistence, err, "forced transition for inspection %s", req.InspectionID)
	}

	return res, nil
}

// GetCurrentState returns the persisted state and version of an
// inspection.
func (s *WorkflowServiceImpl) GetCurrentState(ctx context.Context, shopID, inspectionID string) (*primary.CurrentState, error) {
	rec, err := s.store.GetInspection(ctx, shopID, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inspection: %w", err)
	}
	return &primary.CurrentState{
		InspectionID: rec.ID,
		State:        rec.State,
		Version:      rec.Version,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// GetWorkflowHistory returns the ordered audit trail of an inspection.
func (s *WorkflowServiceImpl) GetWorkflowHistory(ctx context.Context, shopID, inspectionID string) ([]*primary.HistoryEntry, error) {
	records, err := s.store.ListHistory(ctx, shopID, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]*primary.HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, &primary.HistoryEntry{
			ID:            r.ID,
			InspectionID:  r.InspectionID,
			FromState:     r.FromState,
			ToState:       r.ToState,
			ChangedBy:     r.ChangedBy,
			ChangedByName: r.ChangedByName,
			ChangedByRole: r.ChangedByRole,
			Forced:        r.Forced,
			ChangedAt:     r.ChangedAt,
			ChangeReason:  r.ChangeReason,
		})
	}
	return entries, nil
}

// GetWorkflowStatistics aggregates transition activity over the trailing
// window.
func (s *WorkflowServiceImpl) GetWorkflowStatistics(ctx context.Context, shopID string, windowDays int) (*primary.WorkflowStatistics, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d days", windowDays)
	}

	rec, err := s.store.GetStatistics(ctx, shopID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	return &primary.WorkflowStatistics{
		WindowDays:            rec.WindowDays,
		TotalTransitions:      rec.TotalTransitions,
		Starts:                rec.Starts,
		Submissions:           rec.Submissions,
		Approvals:             rec.Approvals,
		Rejections:            rec.Rejections,
		Completions:           rec.Completions,
		ForcedTransitions:     rec.ForcedTransitions,
		AvgCompletionDuration: rec.AvgCompletionDuration,
		ByState:               rec.ByState,
	}, nil
}

// ListInspectionsByState returns a current snapshot of inspections in the
// given states.
func (s *WorkflowServiceImpl) ListInspectionsByState(ctx context.Context, shopID string, states []string, limit int) ([]*primary.Inspection, error) {
	for _, raw := range states {
		if _, err := workflow.ParseState(raw); err != nil {
			return nil, err
		}
	}

	records, err := s.store.ListByState(ctx, shopID, states, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}

	out := make([]*primary.Inspection, 0, len(records))
	for _, r := range records {
		out = append(out, recordToInspection(r))
	}
	return out, nil
}

// CreateInspection creates a new inspection in the initial state.
func (s *WorkflowServiceImpl) CreateInspection(ctx context.Context, req primary.CreateInspectionRequest) (*primary.Inspection, error) {
	if req.ShopID == "" || req.TechnicianID == "" || req.CustomerID == "" {
		return nil, fmt.Errorf("shop, technician and customer are required")
	}

	id := req.InspectionID
	if id == "" {
		id = s.newID()
	}

	rec := &secondary.InspectionRecord{
		ID:           id,
		ShopID:       req.ShopID,
		TechnicianID: req.TechnicianID,
		CustomerID:   req.CustomerID,
		State:        string(workflow.InitialState()),
		Version:      0,
	}
	if err := s.store.CreateInspection(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create inspection: %w", err)
	}

	created, err := s.store.GetInspection(ctx, req.ShopID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created inspection: %w", err)
	}
	return recordToInspection(created), nil
}

// AddItem attaches an item to an inspection.
func (s *WorkflowServiceImpl) AddItem(ctx context.Context, req primary.AddItemRequest) error {
	if req.Name == "" {
		return fmt.Errorf("item name is required")
	}

	// Items are attached upstream of review; verify the record exists.
	if _, err := s.store.GetInspection(ctx, req.ShopID, req.InspectionID); err != nil {
		return fmt.Errorf("failed to load inspection: %w", err)
	}

	item := &secondary.ItemRecord{
		ID:           s.newID(),
		InspectionID: req.InspectionID,
		Name:         req.Name,
		IsCritical:   req.IsCritical,
	}
	if req.ConditionStatus != "" {
		status := req.ConditionStatus
		item.ConditionStatus = &status
	}
	if err := s.store.CreateItem(ctx, req.ShopID, item); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// ListItems returns the items of an inspection.
func (s *WorkflowServiceImpl) ListItems(ctx context.Context, shopID, inspectionID string) ([]*primary.InspectionItem, error) {
	records, err := s.store.ListItems(ctx, shopID, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	out := make([]*primary.InspectionItem, 0, len(records))
	for _, r := range records {
		item := &primary.InspectionItem{
			ID:           r.ID,
			InspectionID: r.InspectionID,
			Name:         r.Name,
			IsCritical:   r.IsCritical,
		}
		if r.ConditionStatus != nil {
			item.ConditionStatus = *r.ConditionStatus
		}
		out = append(out, item)
	}
	return out, nil
}

// gatherFacts collects the read-only record context the validator needs,
// inside the transaction so validation sees the locked snapshot.
func (s *WorkflowServiceImpl) gatherFacts(ctx context.Context, tx secondary.WorkflowTx, rec *secondary.InspectionRecord, toState workflow.State) (workflow.Facts, error) {
	items, err := tx.ListItems(ctx, rec.ShopID, rec.ID)
	if err != nil {
		return workflow.Facts{}, fmt.Errorf("failed to load items: %w", err)
	}
	facts := factsFromItems(items)

	if toState == workflow.StateSentToCustomer {
		facts.CustomerHasContact, err = tx.CustomerHasContact(ctx, rec.ShopID, rec.CustomerID)
		if err != nil {
			return workflow.Facts{}, fmt.Errorf("failed to check customer contact: %w", err)
		}
	}
	return facts, nil
}

func factsFromItems(items []*secondary.ItemRecord) workflow.Facts {
	facts := workflow.Facts{ItemCount: len(items)}
	for _, it := range items {
		if it.ConditionStatus == nil || *it.ConditionStatus == "" {
			facts.ItemsMissingCondition++
		}
		if it.IsCritical {
			facts.OpenCriticalCount++
		}
	}
	return facts
}

// parseTransitionRequest validates the raw request values against the
// closed state and role sets. Typos fail loudly here, at the boundary.
func parseTransitionRequest(req primary.TransitionRequest) (workflow.Request, error) {
	from, err := workflow.ParseState(req.FromState)
	if err != nil {
		return workflow.Request{}, err
	}
	to, err := workflow.ParseState(req.ToState)
	if err != nil {
		return workflow.Request{}, err
	}
	role, err := workflow.ParseRole(req.ActorRole)
	if err != nil {
		return workflow.Request{}, err
	}
	return workflow.Request{
		InspectionID: req.InspectionID,
		FromState:    from,
		ToState:      to,
		ActorID:      req.ActorID,
		ActorRole:    role,
		ShopID:       req.ShopID,
		Reason:       req.Reason,
	}, nil
}

func toPortError(e *workflow.TransitionError) primary.TransitionError {
	return primary.TransitionError{Kind: string(e.Kind), Message: e.Message}
}

func recordToInspection(r *secondary.InspectionRecord) *primary.Inspection {
	return &primary.Inspection{
		ID:           r.ID,
		ShopID:       r.ShopID,
		TechnicianID: r.TechnicianID,
		CustomerID:   r.CustomerID,
		State:        r.State,
		Version:      r.Version,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
		Duration:     r.Duration,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
