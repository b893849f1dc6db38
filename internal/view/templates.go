package view

// pageTemplate renders one panel filling the viewport. The content block is
// trusted markup and replaced in place when the live socket pushes new HTML.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{if .Title}}{{.Title}}{{else}}Text panel{{end}}</title>
  <style>
    html, body { height: 100%; margin: 0; }
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; font-size: 14px; line-height: 1.5; }
    .panel { display: flex; flex-direction: column; height: 100%; }
    .panel-scroll { flex: 1 1 0; min-height: 0; overflow-y: auto; }
    .markdown-html { height: 100%; padding: 8px; box-sizing: border-box; }
    .markdown-html pre { overflow-x: auto; padding: 8px; }
    .markdown-html table { border-collapse: collapse; }
    .markdown-html th, .markdown-html td { border: 1px solid #ccc; padding: 4px 8px; }
  </style>
</head>
<body>
  <div class="panel">
    <div class="panel-scroll">
      {{template "fragment" .Content}}
    </div>
  </div>
{{- if .LiveURL}}
  <script>
  (function() {
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var target = document.getElementById('panel-content');
    function connect() {
      var ws = new WebSocket(proto + location.host + {{.LiveURL}});
      ws.onmessage = function(ev) {
        var msg = JSON.parse(ev.data);
        if (msg.type === 'html') { target.innerHTML = msg.html; }
      };
      ws.onclose = function() { setTimeout(connect, 2000); };
    }
    connect();
  })();
  </script>
{{- end}}
</body>
</html>
`

const fragmentTemplate = `<div id="panel-content" class="markdown-html">{{.}}</div>`
