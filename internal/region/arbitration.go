package region

import (
	"context"
	"time"
)

// Claim requests r for owner at priority, waiting up to maxWait while
// another identity holds r or a related region at an equal or higher
// priority. A claim by the current owner succeeds at once and raises the
// priority if the new one is higher. Priorities below 1 count as 1.
//
// Owned ancestors block as well as r itself and its descendants, so a
// region never draws underneath a higher-priority parent; exclusive
// regions and the requester's own claims are left out of that check.
// On success any lower-priority holder of a descendant or ancestor is
// superseded: its ownership is dropped, its marquee stopped and its area
// cleared. Claims never preempt a holder at equal or higher priority; a
// denied caller decides itself whether to retry.
func (r *Region) Claim(ctx context.Context, owner string, priority int, maxWait time.Duration) bool {
	if priority < 1 {
		priority = 1
	}
	t := r.tree
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.owner == owner {
		r.raiseLocked(priority)
		return true
	}

	deadline := time.Now().Add(maxWait)
	for {
		blocking := r.blockingLocked(owner)
		if blocking < priority {
			break
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.logger().Infof("region", "%s: %q at %d denied (held at %d)", r.name, owner, priority, blocking)
			return false
		}
		wait := t.pollInterval()
		if remaining < wait {
			wait = remaining
		}
		released := t.released

		t.mu.Unlock()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
		case <-released:
		case <-timer.C:
		}
		timer.Stop()
		t.mu.Lock()

		if ctx.Err() != nil {
			return false
		}
		if r.owner == owner {
			r.raiseLocked(priority)
			return true
		}
	}

	r.grantLocked(owner, priority)
	return true
}

func (r *Region) raiseLocked(priority int) {
	if priority > r.priority {
		r.priority = priority
	}
}

// blockingLocked returns the highest priority held by an identity other
// than requester on r, its descendants or its ancestors. Exclusive
// regions only see their own owner and are never seen by others.
func (r *Region) blockingLocked(requester string) int {
	max := 0
	consider := func(o *Region) {
		if o.owner != "" && o.owner != requester && o.priority > max {
			max = o.priority
		}
	}
	consider(r)
	if r.exclusive {
		return max
	}
	for _, d := range r.descendants {
		if !d.exclusive {
			consider(d)
		}
	}
	for _, a := range r.ancestors {
		if !a.exclusive {
			consider(a)
		}
	}
	return max
}

func (r *Region) grantLocked(owner string, priority int) {
	var wiped []*Region
	if r.owner != "" {
		r.resetLocked()
		wiped = append(wiped, r)
	}
	if !r.exclusive {
		for _, d := range r.descendants {
			if !d.exclusive && d.owner != "" && d.owner != owner {
				r.tree.logger().Infof("region", "%s: %q superseded by %q on %s", d.name, d.owner, owner, r.name)
				d.resetLocked()
				wiped = append(wiped, d)
			}
		}
		for _, a := range r.ancestors {
			if !a.exclusive && a.owner != "" && a.owner != owner {
				r.tree.logger().Infof("region", "%s: %q superseded by %q on %s", a.name, a.owner, owner, r.name)
				a.resetLocked()
				wiped = append(wiped, a)
			}
		}
	}
	r.owner = owner
	r.priority = priority
	for _, w := range wiped {
		w.wipeLocked()
	}
	if len(wiped) > 0 {
		r.tree.broadcastLocked()
	}
}

// Release frees r and every descendant regardless of owner: running
// marquees are cancelled and joined, the area is cleared and flushed, and
// waiting claims are woken.
func (r *Region) Release() error {
	_, err := r.release("")
	return err
}

// ReleaseIfOwner releases r only while owner still holds it. The check and
// the release happen atomically.
func (r *Region) ReleaseIfOwner(owner string) (bool, error) {
	if owner == "" {
		return false, nil
	}
	return r.release(owner)
}

func (r *Region) release(onlyOwner string) (bool, error) {
	subtree := r.subtree()
	for _, x := range subtree {
		x.taskMu.Lock()
	}
	defer func() {
		for i := len(subtree) - 1; i >= 0; i-- {
			subtree[i].taskMu.Unlock()
		}
	}()

	t := r.tree
	t.mu.Lock()
	if onlyOwner != "" && r.owner != onlyOwner {
		t.mu.Unlock()
		return false, nil
	}
	var pending []*task
	for _, x := range subtree {
		x.resetLocked()
		if x.task != nil {
			pending = append(pending, x.task)
			x.task = nil
		}
	}
	t.surface.ClearRect(r.rect)
	t.broadcastLocked()
	err := t.surface.Flush()
	t.mu.Unlock()

	for _, tk := range pending {
		<-tk.done
	}
	if err != nil {
		t.logger().Errorf("region", "%s: flush after release: %v", r.name, err)
	}
	return true, err
}
