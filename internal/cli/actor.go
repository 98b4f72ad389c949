package cli

import (
	"fmt"

	"github.com/example/exchange/internal/wire"
)

// resolveActor picks the acting user: the --as flag when given, else the
// configured default actor.
func resolveActor(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if actor := wire.Config().DefaultActor; actor != "" {
		return actor, nil
	}
	return "", fmt.Errorf("no actor: pass --as USR-XXX or set a default with 'exchange init --actor USR-XXX'")
}
