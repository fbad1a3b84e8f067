// Package render turns token, property, asset and macro data into the markup
// stored inside a token archive. Callers depend on the Renderer interface and
// never on template syntax; the default implementation executes templates
// embedded in the binary.
package render
