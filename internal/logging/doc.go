// Package logging provides the logging interface shared by the patch
// lifecycle, the substitutes and the command line. It hides the backend so
// components log the same way whether they run under zerolog or a plain
// standard library logger.
package logging
