package metadata

import (
	"bufio"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/fspath"
	"github.com/pkg/errors"
)

// Well known tag file names
const (
	BagitFile   = "bagit.txt"
	BagInfoFile = "bag-info.txt"
	FetchFile   = "fetch.txt"
)

// Well known tags
const (
	VersionTag           = "BagIt-Version"
	EncodingTag          = "Tag-File-Character-Encoding"
	OxumTag              = "Payload-Oxum"
	ProfileIdentifierTag = "BagIt-Profile-Identifier"
)

const bom = "\ufeff"

var pathDecoder = strings.NewReplacer("%0A", "\n", "%0a", "\n", "%0D", "\r", "%0d", "\r", "%25", "%")

// ParseTags reads "Label: value" lines from a tag file.  Lines starting with
// whitespace continue the value of the preceding label.  Blank lines are
// ignored.
func ParseTags(r io.Reader) (bagval.Tags, error) {
	tags := bagval.Tags{}

	var label, value string
	var have bool
	flush := func() {
		if have {
			tags.Add(label, value)
		}
	}

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, bom)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			if !have {
				return nil, errors.Errorf("line %d: continuation without a preceding tag", n)
			}
			value = strings.TrimSpace(value + " " + strings.TrimSpace(line))
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, errors.Errorf("line %d: malformed tag '%s'", n, line)
		}

		flush()
		label, value, have = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read tags")
	}
	return tags, nil
}

// ParseManifest reads "digest path" lines from a manifest.  Paths are
// percent-decoded (only %0A, %0D and %25 are significant) and must stay
// within the bag.  Digests are lowercased.
func ParseManifest(r io.Reader) (bagval.Manifest, error) {
	manifest := bagval.Manifest{}

	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, bom)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		split := strings.IndexAny(line, " \t")
		if split <= 0 {
			return nil, errors.Errorf("line %d: malformed manifest entry '%s'", n, line)
		}
		digest := strings.ToLower(line[:split])
		file := strings.TrimLeft(line[split:], " \t")
		if file == "" {
			return nil, errors.Errorf("line %d: missing path for digest %s", n, digest)
		}

		file = pathDecoder.Replace(fspath.Slash(file))
		if !fspath.Local(file) {
			return nil, errors.Errorf("line %d: path '%s' points outside of the bag", n, file)
		}
		file = path.Clean(file)

		if _, dup := manifest[file]; dup {
			return nil, errors.Errorf("line %d: duplicate entry for '%s'", n, file)
		}
		manifest[file] = bagval.Digest(digest)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read manifest")
	}
	return manifest, nil
}

// ParseOxum parses a Payload-Oxum value of the form <octets>.<files>
func ParseOxum(value string) (*bagval.Oxum, error) {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 2 {
		return nil, errors.Errorf("malformed Payload-Oxum '%s'", value)
	}

	bytes, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || bytes < 0 {
		return nil, errors.Errorf("malformed Payload-Oxum octet count '%s'", parts[0])
	}

	files, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || files < 0 {
		return nil, errors.Errorf("malformed Payload-Oxum file count '%s'", parts[1])
	}

	return &bagval.Oxum{Bytes: bytes, Files: files}, nil
}

// ManifestAlgorithm extracts the algorithm from a manifest file name such as
// manifest-sha256.txt or tagmanifest-md5.txt.  The second result tells
// whether this is a tag manifest; ok is false for any other file name.
func ManifestAlgorithm(name string) (alg bagval.Algorithm, tag bool, ok bool) {
	if !strings.HasSuffix(name, ".txt") {
		return "", false, false
	}
	base := strings.TrimSuffix(name, ".txt")

	switch {
	case strings.HasPrefix(base, "tagmanifest-"):
		alg, tag = bagval.Algorithm(strings.TrimPrefix(base, "tagmanifest-")), true
	case strings.HasPrefix(base, "manifest-"):
		alg = bagval.Algorithm(strings.TrimPrefix(base, "manifest-"))
	default:
		return "", false, false
	}

	return alg, tag, alg != ""
}
