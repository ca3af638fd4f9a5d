package config

// Schema is the JSON schema of edupilot.json. Unknown top-level keys are
// rejected so typos surface instead of silently falling back to defaults.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "portal": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "base_url": {"type": "string", "pattern": "^https?://"},
        "canary_path": {"type": "string", "pattern": "^/"},
        "login_marker": {"type": "string", "minLength": 1},
        "grades_row_selector": {"type": "string", "minLength": 1},
        "timetable_row_selector": {"type": "string", "minLength": 1},
        "login": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "account_link": {"type": "string"},
            "username": {"type": "string"},
            "password": {"type": "string"},
            "next": {"type": "string"},
            "remember_me": {"type": "string"},
            "save": {"type": "string"}
          }
        }
      }
    },
    "session": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "path": {"type": "string"}
      }
    },
    "browser": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "headless": {"type": "boolean"},
        "slow_mo_ms": {"type": "integer", "minimum": 0},
        "wait_timeout_ms": {"type": "integer", "minimum": 1},
        "navigation_timeout_ms": {"type": "integer", "minimum": 1},
        "no_sandbox": {"type": "boolean"},
        "chrome_path": {"type": "string"},
        "security": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "allow_file_urls": {"type": "boolean"},
            "allow_localhost_urls": {"type": "boolean"},
            "allowed_domains": {"type": "array", "items": {"type": "string"}},
            "blocked_domains": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    },
    "runs": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "screenshot_dir": {"type": "string"},
        "journal_path": {"type": "string"},
        "retention_days": {"type": "integer", "minimum": 0}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "textfile": {"type": "string"}
      }
    },
    "keepalive": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "schedule": {"type": "string", "minLength": 1},
        "timeout_sec": {"type": "integer", "minimum": 1}
      }
    },
    "create_task": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "subject": {"type": "string"},
        "category": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string", "enum": ["trace", "debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "console": {"type": "boolean"},
        "pretty": {"type": "boolean"},
        "max_size": {"type": "integer", "minimum": 1},
        "max_age": {"type": "integer", "minimum": 0},
        "compress": {"type": "boolean"},
        "redaction": {"type": "boolean"}
      }
    },
    "data_dir": {"type": "string"}
  }
}`
