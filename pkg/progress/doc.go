// Package progress decides how done a claim form is. Given a template and the
// responses submitted so far it counts the questions currently asked
// (required and optional) and how many of each have been answered. Every
// form also asks for the claimant's signature, so a summary always includes
// at least one required question.
package progress
