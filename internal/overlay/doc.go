// Package overlay composites caption banners onto a base video.
//
// A render probes the base video, builds segments when none are supplied,
// rasterizes one banner per segment into a private workspace, and encodes the
// video with the narration track trimmed to the video's length. The workspace
// and output lock are released on every exit path.
//
// Key types:
//   - Compositor: runs renders; concurrent renders of one output take turns
//   - Request: inputs for one render
//   - Result: output path, segments, clips, and quality fallbacks
package overlay
