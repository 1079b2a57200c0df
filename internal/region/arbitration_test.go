package region

import (
	"context"
	"testing"
	"time"
)

func assertOwner(t *testing.T, r *Region, wantOwner string, wantPriority int) {
	t.Helper()
	owner, priority := r.Owner()
	if owner != wantOwner || priority != wantPriority {
		t.Errorf("%s owner = (%q, %d), want (%q, %d)", r.Name(), owner, priority, wantOwner, wantPriority)
	}
}

func TestClaimReentryRaisesPriority(t *testing.T) {
	tree, _, _ := newTestTree(t)
	title := mustRegion(t, tree, Title)
	ctx := t.Context()

	if !title.Claim(ctx, "track", 2, 0) {
		t.Fatal("first claim denied")
	}
	start := time.Now()
	if !title.Claim(ctx, "track", 5, time.Second) {
		t.Fatal("re-entrant claim denied")
	}
	if !title.Claim(ctx, "track", 1, time.Second) {
		t.Fatal("re-entrant lower claim denied")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("re-entry waited %v", elapsed)
	}
	assertOwner(t, title, "track", 5)
}

func TestClaimClampsPriority(t *testing.T) {
	tree, _, _ := newTestTree(t)
	title := mustRegion(t, tree, Title)
	if !title.Claim(t.Context(), "track", 0, 0) {
		t.Fatal("claim denied")
	}
	assertOwner(t, title, "track", 1)
}

func TestClaimDoesNotPreempt(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	ctx := t.Context()
	if !main.Claim(ctx, "flash", 5, 0) {
		t.Fatal("claim denied")
	}

	const wait = 60 * time.Millisecond
	start := time.Now()
	if main.Claim(ctx, "track", 3, wait) {
		t.Fatal("lower priority claim granted")
	}
	if elapsed := time.Since(start); elapsed < wait {
		t.Errorf("denied after %v, want at least %v", elapsed, wait)
	}
	assertOwner(t, main, "flash", 5)
}

func TestClaimTieKeepsFirstOwner(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	ctx := t.Context()
	main.Claim(ctx, "a", 4, 0)
	if main.Claim(ctx, "b", 4, 20*time.Millisecond) {
		t.Fatal("equal priority displaced the owner")
	}
	assertOwner(t, main, "a", 4)
}

func TestClaimHigherPriorityTakesLowerOwner(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	ctx := t.Context()
	main.Claim(ctx, "track", 3, 0)
	if !main.Claim(ctx, "flash", 5, time.Second) {
		t.Fatal("higher priority claim denied")
	}
	assertOwner(t, main, "flash", 5)
}

func TestClaimGrantedAfterRelease(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	ctx := t.Context()
	main.Claim(ctx, "a", 5, 0)

	const maxWait = 2 * time.Second
	result := make(chan bool, 1)
	start := time.Now()
	go func() { result <- main.Claim(ctx, "b", 5, maxWait) }()

	time.Sleep(30 * time.Millisecond)
	if err := main.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !<-result {
		t.Fatal("pending claim denied after release")
	}
	if elapsed := time.Since(start); elapsed >= maxWait {
		t.Errorf("granted after %v, want before %v", elapsed, maxWait)
	}
	assertOwner(t, main, "b", 5)
}

func TestClaimCancelledContext(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	main.Claim(t.Context(), "a", 5, 0)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)
	start := time.Now()
	if main.Claim(ctx, "b", 3, 5*time.Second) {
		t.Fatal("claim granted after cancel")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled claim returned after %v", elapsed)
	}
}

func TestDescendantBlocksParent(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	artist := mustRegion(t, tree, ArtistAlbum)
	ctx := t.Context()

	artist.Claim(ctx, "track", 4, 0)
	if main.Claim(ctx, "flash", 4, 0) {
		t.Error("parent granted at equal priority to a descendant")
	}
	if main.Claim(ctx, "flash", 3, 0) {
		t.Error("parent granted below a descendant")
	}
	if err := artist.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !main.Claim(ctx, "flash", 4, 0) {
		t.Error("parent denied after descendant released")
	}
}

func TestOwnDescendantDoesNotBlock(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	artist := mustRegion(t, tree, ArtistAlbum)
	ctx := t.Context()

	artist.Claim(ctx, "track", 3, 0)
	if !main.Claim(ctx, "track", 3, 0) {
		t.Fatal("identity blocked by its own descendant")
	}
	assertOwner(t, artist, "track", 3)
}

func TestAncestorBlocksChild(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	artist := mustRegion(t, tree, ArtistAlbum)
	ctx := t.Context()

	main.Claim(ctx, "flash", 9, 0)
	if artist.Claim(ctx, "track", 3, 0) {
		t.Error("child granted under a higher priority ancestor")
	}
	if !artist.Claim(ctx, "flash", 9, 0) {
		t.Error("ancestor owner denied its own child")
	}
}

func TestGrantSupersedesLowerDescendants(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	artist := mustRegion(t, tree, ArtistAlbum)
	ctx := t.Context()

	if _, err := artist.RenderStatic(ctx, Request{Owner: "track", Priority: 3}, "Artist"); err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	if !main.Claim(ctx, "flash", 9, 0) {
		t.Fatal("higher priority claim on parent denied")
	}
	assertOwner(t, artist, "", 0)
	if n := tree.Surface().LitCount(artist.Rect()); n != 0 {
		t.Errorf("superseded content still lit: %d pixels", n)
	}
}

func TestGrantSupersedesAncestorAndRepaints(t *testing.T) {
	tree, _, _ := newTestTree(t)
	display := mustRegion(t, tree, Display)
	title := mustRegion(t, tree, Title)
	bt := mustRegion(t, tree, Bluetooth)
	ctx := t.Context()

	if _, err := display.RenderStatic(ctx, Request{Owner: "welcome", Priority: 1}, "Howdy"); err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	if _, err := bt.RenderStatic(ctx, Request{Owner: "bluetooth", Priority: 1}, "B"); err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}
	if _, err := title.RenderStatic(ctx, Request{Owner: "track", Priority: 3}, "Song"); err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}

	assertOwner(t, display, "", 0)
	assertOwner(t, bt, "bluetooth", 1)
	s := tree.Surface()
	if n := s.LitCount(mustRegion(t, tree, Main).Rect()); n != 0 {
		t.Errorf("welcome text left in main: %d pixels", n)
	}
	if s.LitCount(bt.Rect()) == 0 {
		t.Error("bluetooth content not repainted")
	}
	if s.LitCount(title.Rect()) == 0 {
		t.Error("title not drawn")
	}
}

func TestExclusiveRegionIsIsolated(t *testing.T) {
	tree, _, _ := newTestTree(t)
	display := mustRegion(t, tree, Display)
	bt := mustRegion(t, tree, Bluetooth)
	ctx := t.Context()

	bt.Claim(ctx, "bluetooth", 1, 0)
	if !display.Claim(ctx, "welcome", 1, 0) {
		t.Fatal("exclusive region blocked its ancestor")
	}
	assertOwner(t, bt, "bluetooth", 1)
	if !bt.Claim(ctx, "bluetooth", 1, 0) {
		t.Error("exclusive owner blocked by ancestor")
	}
	if bt.Claim(ctx, "other", 1, 0) {
		t.Error("exclusive region granted to a second identity")
	}
}

func TestReleaseWipesSubtree(t *testing.T) {
	tree, sink, _ := newTestTree(t)
	ctx := t.Context()
	for _, name := range []string{Bluetooth, Title, ArtistAlbum, Elapsed, Remaining} {
		r := mustRegion(t, tree, name)
		if _, err := r.RenderStatic(ctx, Request{Owner: "track", Priority: 3}, "x"); err != nil {
			t.Fatalf("RenderStatic %s: %v", name, err)
		}
	}
	flushes := sink.Flushes()

	display := mustRegion(t, tree, Display)
	if err := display.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	for _, r := range tree.Regions() {
		assertOwner(t, r, "", 0)
	}
	if n := tree.Surface().LitCount(display.Rect()); n != 0 {
		t.Errorf("lit after release = %d, want 0", n)
	}
	if sink.Flushes() != flushes+1 {
		t.Errorf("flushes = %d, want %d", sink.Flushes(), flushes+1)
	}
}

func TestReleaseIfOwner(t *testing.T) {
	tree, _, _ := newTestTree(t)
	main := mustRegion(t, tree, Main)
	ctx := t.Context()
	if _, err := main.RenderStatic(ctx, Request{Owner: "welcome", Priority: 1}, "Hi"); err != nil {
		t.Fatalf("RenderStatic: %v", err)
	}

	released, err := main.ReleaseIfOwner("track")
	if err != nil || released {
		t.Fatalf("ReleaseIfOwner(track) = (%v, %v), want (false, nil)", released, err)
	}
	assertOwner(t, main, "welcome", 1)
	if tree.Surface().LitCount(main.Rect()) == 0 {
		t.Error("content wiped by a non-owner")
	}

	released, err = main.ReleaseIfOwner("welcome")
	if err != nil || !released {
		t.Fatalf("ReleaseIfOwner(welcome) = (%v, %v), want (true, nil)", released, err)
	}
	assertOwner(t, main, "", 0)
}
