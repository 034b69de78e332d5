package document

// bridgeScript is the error and console bridge installed in every document
// that executes arbitrary JS. It is the only channel through which the
// host's console panel receives output; the host never reads the iframe
// console directly.
//
// Formatting rules: objects are JSON.stringify'd with 2-space indent and
// fall back to String(x) when stringification throws (circular refs);
// null and undefined render as the literal words, never skipped.
const bridgeScript = `(function () {
  function formatValue(v) {
    if (v === null) return "null";
    if (v === undefined) return "undefined";
    if (v instanceof Error) return (v.stack || v.name + ": " + v.message);
    if (typeof v === "object") {
      try { return JSON.stringify(v, null, 2); } catch (e) { return String(v); }
    }
    return String(v);
  }
  function formatArgs(args) {
    var parts = [];
    for (var i = 0; i < args.length; i++) parts.push(formatValue(args[i]));
    return parts.join(" ");
  }
  function forward(level, message) {
    try { parent.postMessage({ type: "console", level: level, message: message }, "*"); } catch (e) {}
  }
  var levels = ["log", "error", "warn", "info", "debug", "trace"];
  for (var i = 0; i < levels.length; i++) {
    (function (level) {
      var native = console[level] ? console[level].bind(console) : function () {};
      console[level] = function () {
        native.apply(null, arguments);
        forward(level, formatArgs(arguments));
      };
    })(levels[i]);
  }

  function showErrorPanel(message) {
    var root = document.getElementById("root") || document.getElementById("app") || document.body;
    if (!root) return;
    var panel = document.createElement("div");
    panel.className = "preview-error-panel";
    panel.textContent = message;
    root.innerHTML = "";
    root.appendChild(panel);
  }
  window.__previewShowError = function (err) {
    var message = formatValue(err);
    showErrorPanel(message);
    forward("error", message);
  };
  window.addEventListener("error", function (event) {
    var message = event.error ? formatValue(event.error) : String(event.message);
    showErrorPanel(message);
    forward("error", message);
  });
  window.addEventListener("unhandledrejection", function (event) {
    var message = "Unhandled promise rejection: " + formatValue(event.reason);
    showErrorPanel(message);
    forward("error", message);
  });
})();`

// bridgeTag wraps the bridge for insertion into a document head so the
// overrides are installed before any user code runs.
const bridgeTag = "<script>" + bridgeScript + "</script>"
