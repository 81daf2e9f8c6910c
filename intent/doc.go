// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package intent turns a user message and its conversation history into an
// IntentDecision.
//
// Classification is an ordered Chain of Classifier values. Each one either
// decides or defers to the next. The default order is:
//
//  1. GreetingRule: greetings are answered without any external call.
//  2. ForceWebRule: the caller asked for a web search.
//  3. FollowUpRule: the message continues the previous agent's exchange.
//  4. AmbiguityRule: Detector heuristics ask for clarification.
//  5. ModelRule: one language model call with bounded history.
//  6. KeywordRule: keyword routing, consulted only after the model failed.
//
// Follow-ups are resolved before ambiguity detection, so a follow-up is never
// sent back for clarification. When every classifier defers the chain asks
// the user to rephrase. Decide never fails except when the caller's context
// is cancelled.
//
// Basic usage:
//
//	model, err := intent.NewModelRule(provider.IntentClassifier())
//	if err != nil {
//	    return err
//	}
//	chain, err := intent.NewChain(intent.DefaultClassifiers(model))
//	if err != nil {
//	    return err
//	}
//	decision, err := chain.Decide(ctx, intent.Request{Query: "What is attention?"})
package intent
