package pipeline

import (
	"context"
	"fmt"

	"github.com/containerd/platforms"
	specs "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/dosanma1/imgship/internal/ui"
)

// Verify compares the architecture recorded in the built image with the
// target platform. A mismatch is fatal.
func (p *Pipeline) Verify(ctx context.Context, build *BuildResult) (*Verification, error) {
	p.printer.Step(ui.IconSearch, "Verifying architecture")

	reported, err := p.engine.Architecture(ctx, build.Ref)
	if err != nil {
		return nil, err
	}

	v := &Verification{
		Ref:      build.Ref,
		Expected: p.cfg.Architecture(),
		Actual:   normalizeArch(reported),
	}
	if v.Actual != v.Expected {
		return nil, fmt.Errorf("%w: %s is %s, expected %s", ErrArchitectureMismatch, v.Ref, v.Actual, v.Expected)
	}

	p.printer.Success("Architecture %s", v.Actual)
	return v, nil
}

// normalizeArch maps engine spellings such as x86_64 or aarch64 onto the
// OCI architecture names.
func normalizeArch(arch string) string {
	return platforms.Normalize(specs.Platform{Architecture: arch}).Architecture
}
