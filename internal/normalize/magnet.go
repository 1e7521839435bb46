package normalize

import (
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// DefaultTrackers are added to magnets built from a bare info-hash
var DefaultTrackers = []string{
	"http://nyaa.tracker.wf:7777/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://exodus.desync.com:6969/announce",
	"udp://tracker.torrent.eu.org:451/announce",
}

// MagnetFromHash builds a magnet link for a hex encoded v1 info-hash
func MagnetFromHash(hexHash, name string) (string, error) {
	var h metainfo.Hash
	if err := h.FromHexString(strings.TrimSpace(hexHash)); err != nil {
		return "", err
	}
	m := metainfo.Magnet{
		InfoHash:    h,
		DisplayName: name,
		Trackers:    DefaultTrackers,
	}
	return m.String(), nil
}

// MagnetInfoHash returns the lowercase hex info-hash of a magnet link.
// ok is false when uri is not a valid btih magnet.
func MagnetInfoHash(uri string) (hash string, ok bool) {
	m, err := metainfo.ParseMagnetUri(strings.TrimSpace(uri))
	if err != nil {
		return "", false
	}
	return m.InfoHash.HexString(), true
}
