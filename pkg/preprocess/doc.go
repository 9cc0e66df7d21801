/*
Package preprocess implements the sitepress macro substitution engine.
It expands a small templating language embedded in HTML-like source files:
file includes, parameterized components with key=value arguments,
IFDEF/IFNDEF conditional blocks, capitalized pseudo-tags that translate into
component includes, inline function calls, and a narrow PREAMBLE statement
language that may adjust a component's parameters before expansion.

The engine repeatedly finds the leftmost macro form in a document, replaces
it with its resolved text, and rescans until no form remains. Include files
are resolved from a local include tree; absolute URLs are fetched over HTTP
and cached in a hidden directory so repeat builds stay offline.

Engines are safe for concurrent use across pages: all per-expansion state
lives on the stack of a Process call, and the resource cache tolerates
concurrent writers.
*/
package preprocess
