// Package tools defines the data-retrieval tools available to the coach.
//
// Each tool is a tagged catalog record — name, natural-language
// description, argument schema, handler — and the catalog is the single
// source of truth for both the dispatcher and the declarations handed to
// the model, so the two cannot drift apart.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jayden1717/fitness-companion/internal/insight"
	"github.com/Jayden1717/fitness-companion/internal/llm"
	"github.com/Jayden1717/fitness-companion/internal/store"
	"github.com/Jayden1717/fitness-companion/internal/strava"
)

// Tool represents one callable tool.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, args map[string]any) (string, error)
}

// ActivitySource provides activity data for one user. *strava.Client
// satisfies it; tests substitute fakes.
type ActivitySource interface {
	Activities(ctx context.Context, userID string, days int) ([]strava.Activity, error)
	Streams(ctx context.Context, userID string, activityID int64) (map[string][]float64, error)
}

// ProfileStore persists physical stats. *store.Store satisfies it.
type ProfileStore interface {
	Profile(userID string) (store.Profile, error)
	UpdateProfile(userID string, weightKg *float64, ftpWatts *int) (store.Profile, error)
}

// Binder carries the leaf dependencies and mints per-request registries.
// Binding the user id into an explicit per-request record (rather than
// building tool closures once and reusing them) keeps one request's
// tools from ever seeing another user's data.
type Binder struct {
	activities ActivitySource
	profiles   ProfileStore
	logger     *slog.Logger
}

// NewBinder creates a Binder over the activity provider and profile store.
func NewBinder(activities ActivitySource, profiles ProfileStore, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{
		activities: activities,
		profiles:   profiles,
		logger:     logger,
	}
}

// ForUser builds the tool registry bound to one user id. The model never
// sees or supplies the user id; every handler already carries it.
func (b *Binder) ForUser(userID string) *Registry {
	r := &Registry{
		userID:     userID,
		activities: b.activities,
		profiles:   b.profiles,
		logger:     b.logger.With("user", userID),
		tools:      make(map[string]*Tool),
	}
	r.registerBuiltins()
	return r
}

// Registry holds the tools for one request, bound to one user.
type Registry struct {
	userID     string
	activities ActivitySource
	profiles   ProfileStore
	logger     *slog.Logger
	tools      map[string]*Tool
	order      []string // declaration order, kept stable for the model
}

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name:        "my_recent_activities",
		Description: "Get a summary of my activities from the last 14 days, including ID, distance, and intensity.",
		Handler:     r.handleRecentActivities,
	})

	r.Register(&Tool{
		Name:        "analyze_ride",
		Description: "Analyze a specific ride in detail (using streams like HR, cadence) given its ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"activity_id": map[string]any{
					"type":        "integer",
					"description": "The activity ID, as listed in the recent activities summary",
				},
			},
			"required": []string{"activity_id"},
		},
		Handler: r.handleAnalyzeRide,
	})

	r.Register(&Tool{
		Name:        "my_progression",
		Description: "Check if my training volume/intensity is increasing or decreasing compared to last month.",
		Handler:     r.handleProgression,
	})

	r.Register(&Tool{
		Name:        "update_stats",
		Description: "Update my physical stats (weight in kg, FTP in watts). Call this if the user provides this information.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"weight_kg": map[string]any{
					"type":        "number",
					"description": "Body weight in kilograms",
				},
				"ftp": map[string]any{
					"type":        "integer",
					"description": "Functional threshold power in watts",
				},
			},
		},
		Handler: r.handleUpdateStats,
	})
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Declarations returns the catalog as declared to the model, in stable
// registration order.
func (r *Registry) Declarations() []llm.ToolDeclaration {
	decls := make([]llm.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		decls = append(decls, llm.ToolDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return decls
}

// Execute runs a tool by name. An unknown name returns *ErrToolNotFound;
// handler failures propagate as ordinary errors. Callers decide how to
// surface either.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &ErrToolNotFound{ToolName: name}
	}
	r.logger.Debug("executing tool", "tool", name, "args", args)
	return tool.Handler(ctx, args)
}

// Tool handlers

func (r *Registry) handleRecentActivities(ctx context.Context, _ map[string]any) (string, error) {
	activities, err := r.activities.Activities(ctx, r.userID, 14)
	if err != nil {
		return "", err
	}
	if len(activities) == 0 {
		return "No recent activities found.", nil
	}

	var weight float64
	profile, err := r.profiles.Profile(r.userID)
	if err == nil && profile.WeightKg != nil {
		weight = *profile.WeightKg
	}

	return insight.Digest(insight.Summarize(activities, weight)), nil
}

func (r *Registry) handleAnalyzeRide(ctx context.Context, args map[string]any) (string, error) {
	activityID, ok := intArg(args, "activity_id")
	if !ok {
		return "", fmt.Errorf("activity_id is required")
	}

	streams, err := r.activities.Streams(ctx, r.userID, activityID)
	if err != nil {
		return "", err
	}
	if len(streams) == 0 {
		return "Could not fetch detailed data streams for this activity.", nil
	}

	return insight.AnalyzeStreams(streams, fmt.Sprintf("Activity %d", activityID)), nil
}

func (r *Registry) handleProgression(ctx context.Context, _ map[string]any) (string, error) {
	activities, err := r.activities.Activities(ctx, r.userID, 30)
	if err != nil {
		return "", err
	}
	if len(activities) == 0 {
		return "Not enough data to check progression.", nil
	}

	sevenDaysAgo := time.Now().AddDate(0, 0, -7)

	var currentWeek, pastWeeks []insight.Insight
	for _, act := range activities {
		in := insight.Summarize([]strava.Activity{act}, 0)[0]
		date, err := time.Parse("2006-01-02", in.Date)
		if err == nil && date.After(sevenDaysAgo) {
			currentWeek = append(currentWeek, in)
		} else {
			pastWeeks = append(pastWeeks, in)
		}
	}

	return insight.Progression(currentWeek, pastWeeks), nil
}

func (r *Registry) handleUpdateStats(_ context.Context, args map[string]any) (string, error) {
	var weightKg *float64
	if w, ok := floatArg(args, "weight_kg"); ok {
		weightKg = &w
	}
	var ftp *int
	if f, ok := intArg(args, "ftp"); ok {
		v := int(f)
		ftp = &v
	}

	updated, err := r.profiles.UpdateProfile(r.userID, weightKg, ftp)
	if err != nil {
		return "", err
	}

	weightStr, ftpStr := "?", "?"
	if updated.WeightKg != nil {
		weightStr = fmt.Sprintf("%g", *updated.WeightKg)
	}
	if updated.FTPWatts != nil {
		ftpStr = fmt.Sprintf("%d", *updated.FTPWatts)
	}
	return fmt.Sprintf("Profile updated. Weight: %skg, FTP: %sW.", weightStr, ftpStr), nil
}

// Argument coercion helpers. JSON numbers arrive as float64; some models
// quote them as strings, so both shapes are accepted.

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func intArg(args map[string]any, key string) (int64, bool) {
	f, ok := floatArg(args, key)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
