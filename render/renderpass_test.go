package render

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestBuildFramebuffersOnePerImage(t *testing.T) {
	created := 0
	create := func(attachments []vk.ImageView) (vk.Framebuffer, error) {
		if len(attachments) != 3 {
			t.Fatalf("attachment count = %d, want 3", len(attachments))
		}
		created++
		return vk.NullFramebuffer, nil
	}

	rp := &RenderPass{}
	views := make([]vk.ImageView, 3)
	var err error
	rp.framebuffers, err = buildFramebuffers(vk.NullImageView, vk.NullImageView, views, create)
	if err != nil {
		t.Fatal(err)
	}
	if rp.FramebufferCount() != 3 {
		t.Fatalf("framebuffers = %d, want 3", rp.FramebufferCount())
	}

	// A resize rebuild replaces the set; the count tracks the new
	// swapchain, it does not accumulate.
	views = make([]vk.ImageView, 2)
	rp.framebuffers, err = buildFramebuffers(vk.NullImageView, vk.NullImageView, views, create)
	if err != nil {
		t.Fatal(err)
	}
	if rp.FramebufferCount() != 2 {
		t.Fatalf("framebuffers after rebuild = %d, want 2", rp.FramebufferCount())
	}
	if created != 5 {
		t.Fatalf("create calls = %d, want 5", created)
	}
}

func TestBuildFramebuffersPartialOnError(t *testing.T) {
	fail := errors.New("boom")
	calls := 0
	create := func([]vk.ImageView) (vk.Framebuffer, error) {
		calls++
		if calls == 3 {
			return vk.NullFramebuffer, fail
		}
		return vk.NullFramebuffer, nil
	}

	fbs, err := buildFramebuffers(vk.NullImageView, vk.NullImageView, make([]vk.ImageView, 4), create)
	if !errors.Is(err, fail) {
		t.Fatalf("err = %v", err)
	}
	if len(fbs) != 2 {
		t.Fatalf("partial framebuffers = %d, want 2", len(fbs))
	}
}
