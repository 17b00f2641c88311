package main

import (
	"time"

	"github.com/TeamNorCal/xled"
)

// This file implements a monitor that subscribes to the frames being played
// and periodically logs the rate at which they are shown

func runMonitoring(fan *xled.FanOut, quitC <-chan struct{}) {

	frameC := fan.Subscribe()
	defer fan.Unsubscribe(frameC)

	tick := time.NewTicker(10 * time.Second)
	defer tick.Stop()

	frames := 0
	started := time.Now()
	for {
		select {
		case _, isOpen := <-frameC:
			if !isOpen {
				return
			}
			frames++
		case <-tick.C:
			elapsed := time.Since(started)
			logger.Debug("frames shown", "frames", frames, "fps", float64(frames)/elapsed.Seconds())
			frames = 0
			started = time.Now()
		case <-quitC:
			return
		}
	}
}
