// Package providex implements the sage driver contract against the
// ProvideX scripting host that ships with the Sage 100 workstation
// client. The host is a Windows COM server; on other platforms Open
// always fails and the session pool runs empty, which keeps the HTTP
// surface up for probes while reporting unhealthy.
package providex

import "github.com/dylan-buck/UAF-Auto/pkg/sage"

// New returns the platform driver
func New() sage.Driver {
	return newDriver()
}
