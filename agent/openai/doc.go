// Package openai adapts the OpenAI chat completions API to the
// [agent.Oracle] interface.
package openai
