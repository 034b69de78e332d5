package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleIndex serves the host page: the outer shell that owns the
// websocket connection and the sandbox frame, forwards documents into the
// frame, and relays frame events back to the server.
func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	frameID, _ := json.Marshal(s.host.FrameID().String())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, hostPage, frameID)
}

// handleFrame serves the sandbox frame: a same-origin page whose load
// event marks the frame instance live. It holds the inner iframe that
// actually renders generated documents via srcdoc, and relays messages
// in both directions.
func (s *PreviewServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, framePage)
}

const hostPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>compvault preview</title>
<style>
  html, body { margin: 0; height: 100%%; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
  #shell { display: flex; flex-direction: column; height: 100%%; }
  #frame-wrap { flex: 1; min-height: 0; }
  #sandbox { width: 100%%; height: 100%%; border: 0; }
  #console { height: 160px; overflow-y: auto; background: #1a202c; color: #e2e8f0; font-family: Monaco, Menlo, monospace; font-size: 12px; padding: 8px; }
  #console .error { color: #fc8181; }
  #console .warn { color: #f6e05e; }
  #status { padding: 4px 8px; background: #edf2f7; font-size: 12px; color: #4a5568; }
</style>
</head>
<body>
<div id="shell">
  <div id="status">connecting…</div>
  <div id="frame-wrap"></div>
  <div id="console"></div>
</div>
<script>
(function () {
  var frameId = %s;
  var wrap = document.getElementById("frame-wrap");
  var statusEl = document.getElementById("status");
  var consoleEl = document.getElementById("console");
  var sandbox = null;
  var pendingHtml = null;

  function mountFrame(id) {
    frameId = id;
    wrap.textContent = "";
    sandbox = document.createElement("iframe");
    sandbox.id = "sandbox";
    sandbox.src = "/frame?fid=" + encodeURIComponent(id);
    wrap.appendChild(sandbox);
  }

  function appendConsole(level, message) {
    var line = document.createElement("div");
    line.className = level;
    line.textContent = "[" + level + "] " + message;
    consoleEl.appendChild(line);
    consoleEl.scrollTop = consoleEl.scrollHeight;
    while (consoleEl.childNodes.length > 500) {
      consoleEl.removeChild(consoleEl.firstChild);
    }
  }

  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");

  ws.onopen = function () { statusEl.textContent = "connected"; };
  ws.onclose = function () { statusEl.textContent = "disconnected"; };

  ws.onmessage = function (e) {
    var msg;
    try { msg = JSON.parse(e.data); } catch (err) { return; }
    if (msg.type === "setPreviewHtml") {
      if (msg.frameId && msg.frameId !== frameId) { mountFrame(msg.frameId); pendingHtml = msg.html; return; }
      if (sandbox && sandbox.contentWindow) {
        sandbox.contentWindow.postMessage({ type: "setPreviewHtml", html: msg.html }, location.origin);
      } else {
        pendingHtml = msg.html;
      }
    } else if (msg.type === "console") {
      appendConsole(msg.level || "log", msg.message || "");
    } else if (msg.type === "sandbox:state") {
      statusEl.textContent = "sandbox: " + msg.state;
    } else if (msg.type === "sandbox:reload") {
      consoleEl.textContent = "";
      mountFrame(msg.frameId);
    }
  };

  window.addEventListener("message", function (e) {
    if (e.origin !== location.origin) { return; }
    if (!sandbox || e.source !== sandbox.contentWindow) { return; }
    var msg = e.data || {};
    msg.frameId = frameId;
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(msg));
    }
    if (msg.type === "frame:ready" && pendingHtml !== null) {
      sandbox.contentWindow.postMessage({ type: "setPreviewHtml", html: pendingHtml }, location.origin);
      pendingHtml = null;
    }
  });

  mountFrame(frameId);
})();
</script>
</body>
</html>
`

const framePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>sandbox</title>
<style>
  html, body { margin: 0; height: 100%; }
  #content { width: 100%; height: 100%; border: 0; }
</style>
</head>
<body>
<iframe id="content" sandbox="allow-scripts allow-same-origin"></iframe>
<script>
(function () {
  var inner = document.getElementById("content");

  // Messages from the host page: new documents to render.
  window.addEventListener("message", function (e) {
    if (e.origin !== location.origin || e.source !== window.parent) { return; }
    var msg = e.data || {};
    if (msg.type === "setPreviewHtml" && typeof msg.html === "string") {
      window.parent.postMessage({ type: "preview:accepted" }, location.origin);
      inner.srcdoc = msg.html;
    }
  });

  // Messages from the rendered document: load signal and console relay.
  window.addEventListener("message", function (e) {
    if (e.source !== inner.contentWindow) { return; }
    var msg = e.data || {};
    if (msg.type === "preview:loaded" || msg.type === "console") {
      window.parent.postMessage(msg, location.origin);
    }
  });

  window.parent.postMessage({ type: "frame:ready" }, location.origin);
})();
</script>
</body>
</html>
`
