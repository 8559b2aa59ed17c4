package tool

import (
	"slices"
	"strings"

	"github.com/harunnryd/chatlab/internal/model/contract"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Effect says what a tool touches besides its return value.
type Effect string

const (
	EffectNone      Effect = "none"
	EffectWrites    Effect = "writes"    // persists local state (reminder store)
	EffectDelegates Effect = "delegates" // runs other registered tools
)

// ToolMetadata is shown by `chatlab tools`; it never affects dispatch.
type ToolMetadata struct {
	Source       string
	Capabilities []string
	Risk         RiskLevel
	Effect       Effect
}

// HasSideEffects reports whether running the tool may change state outside
// the conversation.
func (m ToolMetadata) HasSideEffects() bool {
	return m.Effect != EffectNone
}

type MetadataProvider interface {
	ToolMetadata() ToolMetadata
}

type ToolDescriptor struct {
	Definition contract.ToolSchema
	Metadata   ToolMetadata
}

// describe fills unset metadata. Risk, when absent, follows from the effect:
// a tool that only computes is low risk, anything else medium.
func describe(t Tool) ToolMetadata {
	var meta ToolMetadata
	if provider, ok := t.(MetadataProvider); ok {
		meta = provider.ToolMetadata()
	}

	meta.Source = strings.ToLower(strings.TrimSpace(meta.Source))
	if meta.Source == "" {
		meta.Source = "runtime"
	}

	switch meta.Effect {
	case EffectNone, EffectWrites, EffectDelegates:
	default:
		meta.Effect = EffectNone
	}

	meta.Risk = RiskLevel(strings.ToLower(strings.TrimSpace(string(meta.Risk))))
	switch meta.Risk {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		meta.Risk = RiskLow
		if meta.HasSideEffects() {
			meta.Risk = RiskMedium
		}
	}

	capabilities := make([]string, 0, len(meta.Capabilities))
	for _, c := range meta.Capabilities {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			capabilities = append(capabilities, c)
		}
	}
	slices.Sort(capabilities)
	meta.Capabilities = slices.Compact(capabilities)

	return meta
}
