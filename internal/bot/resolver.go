package bot

import (
	"strings"

	"github.com/farllirs/botpanel/internal/store"
)

// variantMarker prefixes an argument that selects a named variant,
// e.g. "!greet -formal".
const variantMarker = "-"

// CommandSource is the slice of the command store the resolver needs.
type CommandSource interface {
	FindCommand(botID, trigger string) (*store.Command, error)
	FindVariant(botID, trigger, name string) (*store.Variant, error)
}

// Resolution is a resolved executable unit plus the final argument list.
// Variant is non-nil when a variant fully replaces the command; Cooldown
// always comes from the parent command.
type Resolution struct {
	Trigger  string
	Command  *store.Command
	Variant  *store.Variant
	Args     []string
	Cooldown int
}

// Kind returns the kind of the unit that will actually execute.
func (r *Resolution) Kind() store.Kind {
	if r.Variant != nil {
		return r.Variant.Kind
	}
	return r.Command.Kind
}

// Response returns the static text of the unit that will execute.
func (r *Resolution) Response() string {
	if r.Variant != nil {
		return r.Variant.Response
	}
	return r.Command.Response
}

// Code returns the executable body of the unit that will execute.
func (r *Resolution) Code() string {
	if r.Variant != nil {
		return r.Variant.Code
	}
	return r.Command.Code
}

// Resolver maps raw message text to a stored command or variant.
type Resolver struct {
	source CommandSource
}

func NewResolver(source CommandSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve parses content against prefix and looks up the matching unit for
// botID. It returns (nil, nil) when the message is not a command or no
// command matches; that is not an error, the caller simply does nothing.
//
// A leading marker-prefixed argument is consumed as a variant name. When
// the variant exists it replaces the command wholesale and the name is not
// re-added to the arguments; when it does not, the consumed token is put
// back at the front of the argument list and the plain command runs.
func (r *Resolver) Resolve(botID, prefix, content string) (*Resolution, error) {
	if !strings.HasPrefix(content, prefix) {
		return nil, nil
	}

	fields := strings.Fields(strings.TrimSpace(content[len(prefix):]))
	if len(fields) == 0 {
		return nil, nil
	}
	trigger := strings.ToLower(fields[0])
	args := fields[1:]

	variantName := ""
	if len(args) > 0 && strings.HasPrefix(args[0], variantMarker) {
		variantName = strings.ToLower(strings.TrimPrefix(args[0], variantMarker))
		args = args[1:]
	}

	cmd, err := r.source.FindCommand(botID, trigger)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, nil
	}

	res := &Resolution{
		Trigger:  trigger,
		Command:  cmd,
		Args:     args,
		Cooldown: cmd.Cooldown,
	}

	if variantName != "" {
		variant, err := r.source.FindVariant(botID, trigger, variantName)
		if err != nil {
			return nil, err
		}
		if variant != nil {
			res.Variant = variant
		} else {
			// Unknown variant falls back to the plain command with the
			// token restored, no error surfaces to the user.
			res.Args = append([]string{variantMarker + variantName}, args...)
		}
	}
	return res, nil
}
