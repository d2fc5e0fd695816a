package source

import "github.com/GrupoDiana/brt/internal/mathutil"

// VirtualSourceFeed is implemented by an external room-acoustics model
// (e.g. a scattering-delay-network simulator) that drives a Virtual
// source node's samples and transform every frame instead of a plain
// audio buffer (supplemented from original_source/'s SDN room model,
// which spec.md's distillation drops but which still needs a contract
// so a Virtual source can be wired to one without internal/source
// depending on any particular room-model implementation).
type VirtualSourceFeed interface {
	// NextBlock returns the samples and transform for one frame. ok is
	// false when the feed has no data this frame (e.g. a virtual source
	// still warming up); the caller should publish silence instead.
	NextBlock(blockSize int) (samples mathutil.Buffer, transform mathutil.Transform, ok bool)
}

// BindFeed installs feed as the per-frame source of samples/transform
// for a Virtual node, replacing the usual SetInput/HandleCommand path.
// It is a no-op (and should not be called) for Simple/Directional
// nodes.
func (n *Node) BindFeed(feed VirtualSourceFeed) {
	n.feed = feed
}
