package report

// Schema is the JSON Schema (Draft 2020-12) for the conversion report
// JSON output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/pest2phpunit/conversion-report.schema.json",
  "title": "pest2phpunit Conversion Report",
  "description": "Output schema for pest2phpunit convert --format=json and check --format=json",
  "type": "object",
  "required": ["version", "totals", "files", "unchanged", "failures"],
  "properties": {
    "version": {
      "type": "string",
      "description": "pest2phpunit version"
    },
    "totals": { "$ref": "#/$defs/Totals" },
    "files": {
      "type": "array",
      "items": { "$ref": "#/$defs/FileResult" }
    },
    "unchanged": {
      "type": "array",
      "items": { "type": "string" },
      "description": "Files skipped because the ledger shows them already converted"
    },
    "failures": {
      "type": "array",
      "items": { "$ref": "#/$defs/Failure" }
    }
  },
  "$defs": {
    "Totals": {
      "type": "object",
      "required": ["files", "converted", "skipped", "unchanged", "failed", "tests", "markers", "leaks"],
      "properties": {
        "files": { "type": "integer", "minimum": 0 },
        "converted": { "type": "integer", "minimum": 0 },
        "skipped": {
          "type": "integer",
          "minimum": 0,
          "description": "Files without Pest constructs"
        },
        "unchanged": { "type": "integer", "minimum": 0 },
        "failed": { "type": "integer", "minimum": 0 },
        "tests": { "type": "integer", "minimum": 0 },
        "markers": { "type": "integer", "minimum": 0 },
        "leaks": { "type": "integer", "minimum": 0 }
      }
    },
    "FileResult": {
      "type": "object",
      "required": ["path", "converted", "tests", "markers", "leaks"],
      "properties": {
        "path": { "type": "string" },
        "converted": {
          "type": "boolean",
          "description": "False when the file holds no Pest constructs"
        },
        "class": {
          "type": "string",
          "description": "Generated PHPUnit class name"
        },
        "tests": {
          "type": "array",
          "items": { "$ref": "#/$defs/Test" }
        },
        "hooks": {
          "type": "array",
          "items": {
            "type": "string",
            "enum": ["setUp", "tearDown", "setUpBeforeClass", "tearDownAfterClass"]
          }
        },
        "providers": {
          "type": "array",
          "items": { "type": "string" }
        },
        "custom_expectations": {
          "type": "array",
          "items": { "type": "string" }
        },
        "markers": {
          "type": "array",
          "items": { "$ref": "#/$defs/Marker" }
        },
        "leaks": {
          "type": "array",
          "items": { "$ref": "#/$defs/Leak" }
        }
      }
    },
    "Test": {
      "type": "object",
      "required": ["description", "method", "line", "markers"],
      "properties": {
        "description": { "type": "string" },
        "method": { "type": "string" },
        "line": {
          "type": "integer",
          "description": "Line of the test() call in the Pest file"
        },
        "markers": { "type": "integer", "minimum": 0 }
      }
    },
    "Marker": {
      "type": "object",
      "required": ["line", "message"],
      "properties": {
        "line": {
          "type": "integer",
          "minimum": 1,
          "description": "Line of the marker in the generated file"
        },
        "method": { "type": "string" },
        "message": { "type": "string" }
      }
    },
    "Leak": {
      "type": "object",
      "required": ["call", "code"],
      "properties": {
        "method": { "type": "string" },
        "call": {
          "type": "string",
          "description": "Pest function still called in the output"
        },
        "code": { "type": "string" }
      }
    },
    "Failure": {
      "type": "object",
      "required": ["path", "error"],
      "properties": {
        "path": { "type": "string" },
        "error": { "type": "string" }
      }
    }
  }
}`
