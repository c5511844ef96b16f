// Package extractors provides the registry that turns uploaded files into
// text, plus one sub-package per supported format.
//
// Extraction never fails from the caller's point of view: the registry
// replaces extractor errors and unsupported binary content with a short
// placeholder so that ingestion can still record the file.
package extractors
