package compositor_test

import (
	"errors"
	"testing"

	"github.com/gogpu/webtex/compositor"
	"github.com/gogpu/webtex/softdev"
)

func TestBuild(t *testing.T) {
	t.Run("assembles the tree", func(t *testing.T) {
		comp := softdev.NewCompositor()
		win := softdev.NewWindow(800, 600)
		browser := &softdev.Browser{}

		tree, err := compositor.Build(comp, win, browser, 800, 600)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if !tree.Ready() {
			t.Fatal("tree not ready after build")
		}
		if tree.Window() != win {
			t.Fatal("tree bound to wrong window")
		}
		if w, h := tree.Size(); w != 800 || h != 600 {
			t.Fatalf("size = %dx%d, want 800x600", w, h)
		}
		if browser.RootVisual() == nil {
			t.Fatal("browser was not handed a render destination")
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		win := softdev.NewWindow(800, 600)
		win.Destroy()
		_, err := compositor.Build(softdev.NewCompositor(), win, &softdev.Browser{}, 800, 600)
		if !errors.Is(err, compositor.ErrInvalidWindow) {
			t.Fatalf("err = %v, want ErrInvalidWindow", err)
		}
	})

	t.Run("nil browser target", func(t *testing.T) {
		_, err := compositor.Build(softdev.NewCompositor(), softdev.NewWindow(800, 600), nil, 800, 600)
		if !errors.Is(err, compositor.ErrNoTarget) {
			t.Fatalf("err = %v, want ErrNoTarget", err)
		}
	})

	t.Run("target failure", func(t *testing.T) {
		comp := softdev.NewCompositor()
		comp.FailTarget = true
		_, err := compositor.Build(comp, softdev.NewWindow(800, 600), &softdev.Browser{}, 800, 600)
		if !errors.Is(err, softdev.ErrInjected) {
			t.Fatalf("err = %v, want ErrInjected", err)
		}
	})

	t.Run("visual failure releases earlier objects", func(t *testing.T) {
		comp := softdev.NewCompositor()
		comp.FailVisual = true
		_, err := compositor.Build(comp, softdev.NewWindow(800, 600), &softdev.Browser{}, 800, 600)
		if !errors.Is(err, softdev.ErrInjected) {
			t.Fatalf("err = %v, want ErrInjected", err)
		}
		// Nothing half-built may survive.
		for i, v := range comp.Visuals() {
			if !v.Released() {
				t.Fatalf("visual %d leaked by failed build", i)
			}
		}
	})
}

func TestResize(t *testing.T) {
	comp := softdev.NewCompositor()
	win := softdev.NewWindow(800, 600)
	tree, err := compositor.Build(comp, win, &softdev.Browser{}, 800, 600)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tree.Resize(1024, 768)
	if w, h := tree.Size(); w != 1024 || h != 768 {
		t.Fatalf("size = %dx%d after resize, want 1024x768", w, h)
	}
	if !tree.Ready() {
		t.Fatal("tree lost readiness on resize")
	}
}

func TestRelease(t *testing.T) {
	comp := softdev.NewCompositor()
	win := softdev.NewWindow(800, 600)
	browser := &softdev.Browser{}
	tree, err := compositor.Build(comp, win, browser, 800, 600)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tree.Release()

	if tree.Ready() {
		t.Fatal("tree ready after release")
	}
	if !comp.Released() {
		t.Fatal("compositor not released with the tree")
	}
	for i, v := range comp.Visuals() {
		if !v.Released() {
			t.Fatalf("visual %d not released", i)
		}
	}
	// Idempotent.
	tree.Release()
}
