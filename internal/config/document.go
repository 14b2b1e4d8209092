package config

import (
	"fmt"
	"strings"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/replant"
)

// DefaultFileName is the conventional document name inside a config directory.
const DefaultFileName = "harvest.json"

// Document is the persisted configuration record.
type Document struct {
	Crops                []CropDescriptor `json:"crops"`
	ExhaustionPerHarvest float64          `json:"exhaustion_per_harvest"`
	AdditionalLogging    bool             `json:"additional_logging"`
	Handler              string           `json:"handler"`
}

// CropDescriptor is one rule as written in the document.
type CropDescriptor struct {
	Block        string            `json:"block"`
	Property     string            `json:"property,omitempty"`
	Stage        *int              `json:"stage,omitempty"`
	States       map[string]string `json:"states,omitempty"`
	Label        string            `json:"label,omitempty"`
	InitialStage int               `json:"initial_stage,omitempty"`
}

// Compile turns a validated document into a catalog.
// Any bad entry fails the whole document.
func Compile(doc Document) (*crop.Catalog, error) {
	rules := make([]crop.Rule, 0, len(doc.Crops))
	for i, d := range doc.Crops {
		rule, err := compileRule(d)
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidRule,
				Message: fmt.Sprintf("crops[%d]: %v", i, err),
				Err:     err,
			}
		}
		rules = append(rules, rule)
	}

	if doc.ExhaustionPerHarvest < 0 {
		return nil, &LoadError{
			Code:    ErrCodeInvalidSetting,
			Message: fmt.Sprintf("exhaustion_per_harvest must be non-negative, got %v", doc.ExhaustionPerHarvest),
		}
	}

	handler := doc.Handler
	if handler == "" {
		handler = crop.DefaultHandler
	}
	if _, ok := replant.Lookup(handler); !ok {
		return nil, &LoadError{
			Code:    ErrCodeUnknownHandler,
			Message: fmt.Sprintf("handler %q is not registered (registered: %s)", handler, strings.Join(replant.Names(), ", ")),
		}
	}

	return crop.NewCatalog(rules, crop.Settings{
		ExhaustionPerHarvest: doc.ExhaustionPerHarvest,
		AdditionalLogging:    doc.AdditionalLogging,
		Handler:              handler,
	}), nil
}

func compileRule(d CropDescriptor) (crop.Rule, error) {
	block, err := game.ParseIdentifier(d.Block)
	if err != nil {
		return crop.Rule{}, err
	}
	if d.Stage != nil && *d.Stage < 0 {
		return crop.Rule{}, fmt.Errorf("stage must be non-negative, got %d", *d.Stage)
	}
	if d.InitialStage < 0 {
		return crop.Rule{}, fmt.Errorf("initial_stage must be non-negative, got %d", d.InitialStage)
	}

	label := strings.TrimSpace(d.Label)
	if label == "" {
		label = block.Path()
	}

	return crop.Rule{
		Label: label,
		Matcher: crop.Matcher{
			Block:    block,
			Property: d.Property,
			Stage:    d.Stage,
			States:   d.States,
		},
		InitialStage: d.InitialStage,
	}, nil
}

// FromCatalog renders a catalog back into its document form.
func FromCatalog(c *crop.Catalog) Document {
	s := c.Settings()
	doc := Document{
		Crops:                make([]CropDescriptor, 0, c.Len()),
		ExhaustionPerHarvest: s.ExhaustionPerHarvest,
		AdditionalLogging:    s.AdditionalLogging,
		Handler:              s.Handler,
	}
	for _, r := range c.Rules() {
		doc.Crops = append(doc.Crops, CropDescriptor{
			Block:        string(r.Matcher.Block),
			Property:     r.Matcher.GrowthProperty(),
			Stage:        r.Matcher.Stage,
			States:       r.Matcher.States,
			Label:        r.Label,
			InitialStage: r.InitialStage,
		})
	}
	return doc
}
