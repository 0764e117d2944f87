package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// EntityID derives the dotted entity ID for a resource IRI.
// Format: odissei.semcode.<host>.entity.<path>.<name>-<hash>
//
//	https://mcal.odissei.nl/cv/contentFeature/v0.1/CFE2
//	  -> odissei.semcode.mcal.entity.cv-contentFeature-v0_1.CFE2-c7bbc8a6
//	https://doi.org/10.1177/1940161219892768
//	  -> odissei.semcode.doi.entity.10_1177.1940161219892768-289c8090
//
// The readable parts fold punctuation and keep only the first host label,
// so the hash of the full IRI keeps distinct IRIs on distinct IDs.
func EntityID(iri string) string {
	hash := sha256.Sum256([]byte(iri))
	suffix := "-" + hex.EncodeToString(hash[:4])

	u, err := url.Parse(iri)
	if err != nil || u.Host == "" {
		return "odissei.semcode.local.entity.resource." + idPart(iri) + suffix
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	system := host
	if i := strings.IndexByte(host, '.'); i > 0 {
		system = host[:i]
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	name := u.Fragment
	if name == "" && len(segments) > 0 {
		name = segments[len(segments)-1]
		segments = segments[:len(segments)-1]
	}
	if name == "" {
		name = "root"
	}

	path := "resource"
	if len(segments) > 0 {
		parts := make([]string, len(segments))
		for i, s := range segments {
			parts[i] = idPart(s)
		}
		path = strings.Join(parts, "-")
	}

	return strings.Join([]string{"odissei", "semcode", idPart(system), "entity", path, idPart(name) + suffix}, ".")
}

// idPart makes s usable as one segment of a dotted ID.
func idPart(s string) string {
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '/', '#', '?', '*', '>':
			return '_'
		}
		return r
	}, s)
}
