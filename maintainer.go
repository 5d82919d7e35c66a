package connpool

import "time"

// runMaintainer is the background task described in spec.md §4.5. It is
// started once, from New, after a brief startup delay that lets the Pool
// value returned to the caller be fully published before any goroutine
// dereferences it.
func (p *Pool) runMaintainer() {
	defer p.wg.Done()

	select {
	case <-time.After(defaultMaintainerStartDelay):
	case <-p.done:
		return
	}

	p.injectInitial(p.cfg.InitialSize)
	// The low-water mark starts at whatever the initial injection
	// produced: nothing has been consumed from it yet this window.
	p.counters.minIdleSinceLastCheck.set(p.counters.idle.val())

	ticker := time.NewTicker(p.cfg.MaxIdleDuration)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.trimIdle()
		}
	}
}

// trimIdle implements spec.md §4.5 step 2: kill = min-idle-since-last-
// check - min-spare-connections connections are polled from the idle
// queue and disconnected, never more than were observed genuinely spare
// during the window just ended.
func (p *Pool) trimIdle() {
	kill := p.counters.minIdleSinceLastCheck.val() - p.minSpareConnections()
	killed := 0
	for i := int64(0); i < kill; i++ {
		c, ok := p.idle.poll()
		if !ok {
			break
		}
		p.counters.idle.dec()
		if err := c.Connection.RawDisconnect(); err != nil {
			p.log.Printf("connpool: error disconnecting idle connection %s during trim: %v", c.id, err)
		}
		killed++
	}
	if killed > 0 {
		p.log.Printf("connpool: idle trim retired %s", humanCount(killed, "connections"))
	}
	p.counters.minIdleSinceLastCheck.set(p.counters.idle.val())
}
