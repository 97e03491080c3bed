package workflow

import (
	"time"

	"github.com/unalkalkan/ReelPilot/pkg/types"
)

// Frame is what the storyboard preview shows at its current position
type Frame struct {
	Playing      bool                  `json:"playing"`
	SegmentIndex int                   `json:"segment_index"`
	ImageIndex   int                   `json:"image_index"`
	Segment      *types.Segment        `json:"segment,omitempty"`
	Image        *types.GeneratedImage `json:"image,omitempty"`
	ImageCount   int                   `json:"image_count"`
	Duration     time.Duration         `json:"duration"`
}

// ToggleStoryboard starts or pauses playback and returns the new state
func (c *Controller) ToggleStoryboard() types.StoryboardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.storyboard.Playing = !c.s.storyboard.Playing
	c.touch()
	return c.s.storyboard
}

// ResetStoryboard stops playback and rewinds to the first frame
func (c *Controller) ResetStoryboard() types.StoryboardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.storyboard = types.StoryboardState{}
	c.touch()
	return c.s.storyboard
}

// AdvanceStoryboardFrame moves playback one frame forward. Past the last
// frame playback stops and rewinds.
func (c *Controller) AdvanceStoryboardFrame() types.StoryboardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.storyboard = nextFrame(c.s.storyboard, c.s.script, c.s.visuals)
	c.touch()
	return c.s.storyboard
}

// Frame describes the current storyboard position
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.s.storyboard
	f := Frame{
		Playing:      st.Playing,
		SegmentIndex: st.SegmentIndex,
		ImageIndex:   st.ImageIndex,
	}
	if c.s.script == nil || st.SegmentIndex >= len(c.s.script.Segments) {
		return f
	}

	seg := c.s.script.Segments[st.SegmentIndex]
	images := imagesForScene(c.s.visuals, seg.Scene)
	f.Segment = &seg
	f.ImageCount = len(images)
	f.Duration = frameDuration(seg, len(images))
	if st.ImageIndex < len(images) {
		img := images[st.ImageIndex]
		img.Data = append([]byte(nil), img.Data...)
		f.Image = &img
	}
	return f
}

func nextFrame(st types.StoryboardState, script *types.Script, visuals []types.GeneratedImage) types.StoryboardState {
	if script == nil || st.SegmentIndex >= len(script.Segments) {
		return types.StoryboardState{}
	}

	images := imagesForScene(visuals, script.Segments[st.SegmentIndex].Scene)
	if st.ImageIndex+1 < len(images) {
		st.ImageIndex++
		return st
	}
	if st.SegmentIndex+1 < len(script.Segments) {
		st.SegmentIndex++
		st.ImageIndex = 0
		return st
	}
	return types.StoryboardState{}
}

func imagesForScene(visuals []types.GeneratedImage, scene int) []types.GeneratedImage {
	var out []types.GeneratedImage
	for _, img := range visuals {
		if img.Scene == scene {
			out = append(out, img)
		}
	}
	return out
}

// frameDuration splits a segment's duration evenly over its images
func frameDuration(seg types.Segment, images int) time.Duration {
	if images < 1 {
		images = 1
	}
	return time.Duration(seg.DurationSeconds * float64(time.Second) / float64(images))
}
