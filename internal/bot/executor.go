package bot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/farllirs/botpanel/internal/store"
)

const (
	genericFailureReply = "There was an error executing this command."
	readonlyReply       = "The bot is in read-only mode. Executable commands are disabled."
)

// Executor runs resolved units against a message. Code bodies are compiled
// once per distinct body and the compiled program is cached; each
// invocation gets a fresh runtime.
//
// Executable bodies run with the full privileges of this process. There is
// no sandbox and no execution timeout: anyone who can save a command
// through the panel can do anything the process can. Operators must treat
// panel access as equivalent to shell access on the host.
type Executor struct {
	log zerolog.Logger

	mu       sync.Mutex
	programs map[string]*goja.Program
}

func NewExecutor(log zerolog.Logger) *Executor {
	return &Executor{
		log:      log.With().Str("component", "executor").Logger(),
		programs: make(map[string]*goja.Program),
	}
}

// Execute applies the operating-state gate and then runs the resolved
// unit. Failures inside executable bodies never escape: they are logged
// and turned into a single generic reply.
func (e *Executor) Execute(mc *MessageContext, res *Resolution, state State) {
	switch state {
	case StateMaintenance:
		return
	case StateReadonly:
		if res.Kind() == store.KindExecutable {
			if err := mc.Reply(readonlyReply); err != nil {
				e.log.Warn().Err(err).Str("bot", mc.BotID).Msg("Failed to send read-only notice")
			}
			return
		}
	}

	switch res.Kind() {
	case store.KindStatic:
		if err := mc.Reply(res.Response()); err != nil {
			e.log.Error().Err(err).Str("bot", mc.BotID).Str("trigger", res.Trigger).Msg("Failed to send reply")
		}
	case store.KindExecutable:
		if err := e.runSnippet(mc, res); err != nil {
			e.log.Error().Err(err).Str("bot", mc.BotID).Str("trigger", res.Trigger).Msg("Command execution failed")
			if rerr := mc.Reply(genericFailureReply); rerr != nil {
				e.log.Warn().Err(rerr).Str("bot", mc.BotID).Msg("Failed to send failure reply")
			}
		}
	default:
		e.log.Warn().Str("bot", mc.BotID).Str("trigger", res.Trigger).Str("kind", string(res.Kind())).Msg("Unknown command kind")
	}
}

// runSnippet invokes the compiled body as fn(message, args, client). Both
// compile and runtime failures, including panics out of goja, are reported
// as errors.
func (e *Executor) runSnippet(mc *MessageContext, res *Resolution) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in command body: %v", r)
		}
	}()

	prog, err := e.program(res.Code())
	if err != nil {
		return fmt.Errorf("failed to compile command body: %w", err)
	}

	vm := goja.New()

	fnVal, err := vm.RunProgram(prog)
	if err != nil {
		return fmt.Errorf("failed to load command body: %w", err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return fmt.Errorf("command body did not evaluate to a function")
	}

	message := vm.NewObject()
	message.Set("content", mc.Content)
	message.Set("channelId", mc.ChannelID)
	message.Set("guildId", mc.GuildID)
	message.Set("reply", func(text string) {
		if rerr := mc.Reply(text); rerr != nil {
			e.log.Warn().Err(rerr).Str("bot", mc.BotID).Msg("Snippet reply failed")
		}
	})

	author := vm.NewObject()
	author.Set("id", mc.AuthorID)
	author.Set("username", mc.AuthorName)
	message.Set("author", author)

	client := vm.NewObject()
	client.Set("botId", mc.BotID)
	client.Set("send", func(channelID, text string) {
		if serr := mc.Send(channelID, text); serr != nil {
			e.log.Warn().Err(serr).Str("bot", mc.BotID).Msg("Snippet send failed")
		}
	})

	if _, err := fn(goja.Undefined(), message, vm.ToValue(res.Args), client); err != nil {
		return fmt.Errorf("command body raised: %w", err)
	}
	return nil
}

// program returns the cached compiled form of body, compiling on first use.
// Bodies are keyed by content hash so an updated command naturally gets a
// fresh program.
func (e *Executor) program(body string) (*goja.Program, error) {
	sum := sha256.Sum256([]byte(body))
	key := hex.EncodeToString(sum[:])

	e.mu.Lock()
	defer e.mu.Unlock()

	if prog, ok := e.programs[key]; ok {
		return prog, nil
	}

	prog, err := goja.Compile("command", "(function(message, args, client){\n"+body+"\n})", false)
	if err != nil {
		return nil, err
	}
	e.programs[key] = prog
	return prog, nil
}
