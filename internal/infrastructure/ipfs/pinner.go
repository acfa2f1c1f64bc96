package ipfs

import (
	"context"
	"io"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
)

// ShellPinner adds uploads to an IPFS node over its HTTP API and pins them there.
type ShellPinner struct {
	sh      *shell.Shell
	gateway string
}

func NewShellPinner(apiURL, gatewayURL string) *ShellPinner {
	return &ShellPinner{
		sh:      shell.NewShell(apiURL),
		gateway: strings.TrimRight(gatewayURL, "/") + "/",
	}
}

func (p *ShellPinner) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cid, err := p.sh.Add(r, shell.Pin(true))
	if err != nil {
		return "", errors.Wrapf(err, "ipfs add %s", name)
	}
	return cid, nil
}

func (p *ShellPinner) GatewayURL(cid string) string {
	return p.gateway + cid
}
