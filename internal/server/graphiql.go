package server

// graphiqlPage is a minimal GraphiQL shell served on GET requests that
// accept HTML, loading the IDE from a CDN rather than vendoring its
// assets into the binary.
var graphiqlPage = []byte(`<!DOCTYPE html>
<html>
<head>
  <title>GraphiQL</title>
  <style>body { margin: 0; height: 100vh; }</style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql/graphiql.min.css" />
</head>
<body>
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.href });
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher }),
      document.getElementById('graphiql'),
    );
  </script>
</body>
</html>`)
