//go:build !windows

package providex

import (
	"fmt"
	"runtime"

	"github.com/dylan-buck/UAF-Auto/pkg/sage"
)

type driver struct{}

func newDriver() sage.Driver { return driver{} }

func (driver) Open(path string) (sage.Engine, error) {
	return nil, fmt.Errorf("ProvideX scripting host requires the Sage 100 workstation client and is not available on %s", runtime.GOOS)
}
