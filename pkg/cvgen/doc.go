// Package cvgen provides unified interfaces and implementations for
// generating tailored CV payloads using different generative-text providers.
//
// The package abstracts away the differences between provider APIs, so the
// HTTP layer depends only on the Generator interface and providers can be
// swapped through configuration. Gemini (Google Generative AI) and OpenAI
// chat models are supported.
//
// # Usage
//
//	gen, err := cvgen.NewGemini(ctx, apiKey, cvgen.WithGeminiModel("gemini-2.0-flash"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cv, err := gen.GenerateCV(ctx, jobDescription, resume)
//	if err != nil {
//		log.Printf("generation failed: %v", err)
//		return
//	}
//
// The model is instructed to answer with a single fenced JSON document;
// extraction tolerates fenced and bare JSON and reports
// ErrMalformedModelOutput when no object can be decoded. Generation errors
// are the caller's concern only insofar as they must not be confused with
// admission errors: a failed generation does not refund consumed quota.
package cvgen
