package xled

// This module wires the frame broadcast to the secondary displays that mirror
// what the devices are showing

import (
	"time"

	"github.com/karlmutch/errors"
)

// Gateway holds the settings of the mirrors fed by the fan out
type Gateway struct {
	// OPCServer is the host:port of an OPC server, empty disables the mirror
	OPCServer  string
	OPCChannel uint8
	Refresh    time.Duration
}

// Start creates the frame broadcast and attaches the configured mirrors to it
func (gw *Gateway) Start(width int, height int, errorC chan<- errors.Error, quitC <-chan struct{}) (fan *FanOut) {

	fan = StartFanOut(quitC)

	if len(gw.OPCServer) != 0 {
		refresh := gw.Refresh
		if refresh <= 0 {
			refresh = 200 * time.Millisecond
		}
		StartOPC(NewOPCSink(gw.OPCServer, gw.OPCChannel, width, height), fan, refresh, errorC, quitC)
	}

	return fan
}
