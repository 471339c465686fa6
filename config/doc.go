// Package config loads server settings and room definitions.
//
// Server settings are resolved in the order defaults → YAML file →
// environment (prefix AGENTROOM_). Rooms are described in YAML files, one
// room per file:
//
//	name: Copywriting
//	emoji: ✍️
//	agents:
//	  CopyWriter:
//	    instructions: You are a copywriter. Provide one single proposal.
//	  ArtDirector:
//	    emoji: 🎨
//	    instructions: You are an art director.
//	strategies:
//	  selection:
//	    description: CopyWriter first, then ArtDirector.
//	  termination:
//	    description: The ArtDirector has approved the copy.
//	    preset-conditions: [last message]
//	    max-iterations: 6
//
// Agents keep their file order, which decides the fallback speaker.
package config
