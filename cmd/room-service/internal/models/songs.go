package models

// BucketSongs normalises a start-growth song payload into the categorized
// {localFiles, spotifyTracks} shape. Already-categorized payloads pass
// through; flat lists are split on the presence of a spotifyTrack marker
// field; a bare single song is coerced into a one-element list.
func BucketSongs(songs any) map[string]any {
	if m, ok := songs.(map[string]any); ok {
		_, hasLocal := m["localFiles"]
		_, hasSpotify := m["spotifyTracks"]
		if hasLocal || hasSpotify {
			if !hasLocal {
				m["localFiles"] = []any{}
			}
			if !hasSpotify {
				m["spotifyTracks"] = []any{}
			}
			return m
		}
	}

	localFiles := []any{}
	spotifyTracks := []any{}
	for _, entry := range coerceList(songs) {
		if m, ok := entry.(map[string]any); ok {
			if _, tagged := m["spotifyTrack"]; tagged {
				spotifyTracks = append(spotifyTracks, entry)
				continue
			}
		}
		localFiles = append(localFiles, entry)
	}
	return map[string]any{
		"localFiles":    localFiles,
		"spotifyTracks": spotifyTracks,
	}
}

// coerceList treats a non-array payload as a one-element list rather than
// rejecting it.
func coerceList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	default:
		return []any{v}
	}
}
