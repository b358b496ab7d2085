// Package metadata contains facilities for reading bag and profile metadata.
//
// Bag metadata lives in plain text tag files: bagit.txt and bag-info.txt hold
// labelled values (see ParseTags), manifest-<alg>.txt and
// tagmanifest-<alg>.txt hold one digest and path per line (see
// ParseManifest).  All paths read from manifests are converted to their
// solidus delimited, bag root relative form.
//
// A BagIt profile is a JSON document describing what a conforming bag must
// look like.  ParseProfile checks the document's shape against an embedded
// JSON schema and converts it into a Profile, compiling every regular
// expression it contains.  Anything wrong with a profile is a configuration
// error, and is reported once when the profile is loaded rather than every
// time a bag is checked against it.
package metadata
