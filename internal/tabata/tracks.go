package tabata

// TrackSelector picks the audio track for a phase kind at the start of a block.
// PhaseWork asks for the work track, PhaseRest for the rest track that is also used for the block rest.
type TrackSelector interface {
	SelectTrack(kind PhaseKind, block int) (TrackRef, error)
}

// TrackSelectorFunc adapts a function to TrackSelector
type TrackSelectorFunc func(kind PhaseKind, block int) (TrackRef, error)

func (f TrackSelectorFunc) SelectTrack(kind PhaseKind, block int) (TrackRef, error) {
	return f(kind, block)
}

// NoTracks never fails and returns empty tracks, for sessions without music
type NoTracks struct{}

func (NoTracks) SelectTrack(PhaseKind, int) (TrackRef, error) {
	return "", nil
}
